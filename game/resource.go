package game

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ResourceType identifies one of the five tradable resources. The set is
// closed: every hand, bank and trade is expressed over exactly these types.
type ResourceType int

const (
	Wood ResourceType = iota
	Brick
	Wheat
	Sheep
	Ore

	numResourceTypes
)

var resourceNames = [numResourceTypes]string{
	Wood:  "wood",
	Brick: "brick",
	Wheat: "wheat",
	Sheep: "sheep",
	Ore:   "ore",
}

func (r ResourceType) String() string {
	if !r.Valid() {
		return "unknown"
	}
	return resourceNames[r]
}

func (r ResourceType) Valid() bool {
	return r >= 0 && r < numResourceTypes
}

// ResourceTypes returns all resource types in their fixed declaration order.
// Iteration over hands and bank supplies goes through this slice so that
// payouts and fallback discards stay deterministic.
func ResourceTypes() []ResourceType {
	return []ResourceType{Wood, Brick, Wheat, Sheep, Ore}
}

// ParseResource maps a lower-cased resource name to its type.
func ParseResource(name string) (ResourceType, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, r := range ResourceTypes() {
		if resourceNames[r] == name {
			return r, true
		}
	}
	return 0, false
}

// ResourceNames lists the canonical names, used by the agent decoder for
// fuzzy recovery of near-miss spellings.
func ResourceNames() []string {
	return resourceNames[:]
}

func (r ResourceType) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *ResourceType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, ok := ParseResource(name)
	if !ok {
		return fmt.Errorf("unknown resource %q", name)
	}
	*r = parsed
	return nil
}

// Hand is a multiset of resources. Counts never go negative: Remove refuses
// to overdraw instead of clamping silently.
type Hand map[ResourceType]int

func NewHand() Hand {
	return make(Hand, numResourceTypes)
}

func (h Hand) Count(r ResourceType) int {
	return h[r]
}

func (h Hand) Add(r ResourceType, n int) {
	if n <= 0 {
		return
	}
	h[r] += n
}

// Remove takes n units of r out of the hand. It reports false and leaves the
// hand untouched when fewer than n units are held.
func (h Hand) Remove(r ResourceType, n int) bool {
	if n <= 0 {
		return true
	}
	if h[r] < n {
		return false
	}
	h[r] -= n
	if h[r] == 0 {
		delete(h, r)
	}
	return true
}

func (h Hand) Total() int {
	total := 0
	for _, n := range h {
		total += n
	}
	return total
}

func (h Hand) Clone() Hand {
	c := make(Hand, len(h))
	for r, n := range h {
		if n > 0 {
			c[r] = n
		}
	}
	return c
}

// Largest returns the resource with the highest count, breaking ties in
// declaration order. The boolean is false for an empty hand.
func (h Hand) Largest() (ResourceType, bool) {
	best, bestCount := Wood, 0
	for _, r := range ResourceTypes() {
		if h[r] > bestCount {
			best, bestCount = r, h[r]
		}
	}
	return best, bestCount > 0
}
