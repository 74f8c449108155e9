package game

import "fmt"

// SetupError is the only match-fatal error class: a malformed board or
// configuration detected before any turn runs.
type SetupError struct {
	Reason string
}

func (e *SetupError) Error() string {
	return "setup: " + e.Reason
}

func setupErrorf(format string, args ...any) *SetupError {
	return &SetupError{Reason: fmt.Sprintf(format, args...)}
}

// NodeSetup describes one production node of the board layout.
type NodeSetup struct {
	ID         NodeID
	Resource   ResourceType
	Activation int
	Sites      []SiteID
}

// SiteSetup describes one build site and its adjacency.
type SiteSetup struct {
	ID       SiteID
	Slot     SlotKind
	Adjacent []SiteID
}

// StartSetup is a player's free starting placement: one settlement corner
// and one connecting road path, built without resource cost.
type StartSetup struct {
	Settlement SiteID
	Road       SiteID
}

// Setup is the full fixed configuration a match is created from.
type Setup struct {
	Players      int
	TargetVP     int
	BankRatio    int // bank trade ratio, standard 4:1
	BankSupply   int // per resource type
	StartingHand int // per resource type, per player
	RobberStart  NodeID

	Nodes  []NodeSetup
	Sites  []SiteSetup
	Starts []StartSetup // one per player, in turn order
}

// Validate checks structural sanity. Any violation is a SetupError and
// aborts match creation.
func (s Setup) Validate() error {
	if s.Players < 2 {
		return setupErrorf("need at least 2 players, got %d", s.Players)
	}
	if s.TargetVP < 1 {
		return setupErrorf("victory point target must be positive, got %d", s.TargetVP)
	}
	if s.BankRatio < 2 {
		return setupErrorf("bank trade ratio must be at least 2, got %d", s.BankRatio)
	}
	if s.BankSupply < 1 {
		return setupErrorf("bank supply must be positive, got %d", s.BankSupply)
	}
	if s.StartingHand < 0 {
		return setupErrorf("starting hand must be non-negative, got %d", s.StartingHand)
	}
	if len(s.Nodes) == 0 {
		return setupErrorf("board has no production nodes")
	}
	if len(s.Sites) == 0 {
		return setupErrorf("board has no build sites")
	}

	sites := map[SiteID]SiteSetup{}
	for _, site := range s.Sites {
		if _, dup := sites[site.ID]; dup {
			return setupErrorf("duplicate site id %d", site.ID)
		}
		sites[site.ID] = site
	}
	for _, site := range s.Sites {
		for _, adj := range site.Adjacent {
			other, ok := sites[adj]
			if !ok {
				return setupErrorf("site %d adjacent to unknown site %d", site.ID, adj)
			}
			if other.Slot == site.Slot {
				return setupErrorf("site %d adjacent to site %d of same slot kind %s", site.ID, adj, site.Slot)
			}
		}
	}

	nodes := map[NodeID]struct{}{}
	for _, node := range s.Nodes {
		if _, dup := nodes[node.ID]; dup {
			return setupErrorf("duplicate node id %d", node.ID)
		}
		nodes[node.ID] = struct{}{}
		if node.Activation < 2 || node.Activation > 12 {
			return setupErrorf("node %d activation %d out of range 2..12", node.ID, node.Activation)
		}
		if !node.Resource.Valid() {
			return setupErrorf("node %d has unknown resource", node.ID)
		}
		for _, siteID := range node.Sites {
			site, ok := sites[siteID]
			if !ok {
				return setupErrorf("node %d adjacent to unknown site %d", node.ID, siteID)
			}
			if site.Slot != CornerSlot {
				return setupErrorf("node %d adjacent to path site %d, want corner", node.ID, siteID)
			}
		}
	}
	if _, ok := nodes[s.RobberStart]; !ok {
		return setupErrorf("robber start node %d does not exist", s.RobberStart)
	}

	if len(s.Starts) != s.Players {
		return setupErrorf("got %d starting placements for %d players", len(s.Starts), s.Players)
	}
	usedCorners := map[SiteID]struct{}{}
	usedPaths := map[SiteID]struct{}{}
	for i, start := range s.Starts {
		corner, ok := sites[start.Settlement]
		if !ok || corner.Slot != CornerSlot {
			return setupErrorf("player %d starting settlement %d is not a corner site", i, start.Settlement)
		}
		path, ok := sites[start.Road]
		if !ok || path.Slot != PathSlot {
			return setupErrorf("player %d starting road %d is not a path site", i, start.Road)
		}
		if _, taken := usedCorners[start.Settlement]; taken {
			return setupErrorf("starting settlement %d assigned twice", start.Settlement)
		}
		if _, taken := usedPaths[start.Road]; taken {
			return setupErrorf("starting road %d assigned twice", start.Road)
		}
		usedCorners[start.Settlement] = struct{}{}
		usedPaths[start.Road] = struct{}{}
	}
	return nil
}

// NewState creates the single source of truth for one match from a fixed
// setup. The returned state already has starting hands dealt (withdrawn from
// the bank, keeping the conservation law exact) and starting structures
// placed.
func NewState(setup Setup) (*State, error) {
	if err := setup.Validate(); err != nil {
		return nil, err
	}

	board := &Board{
		Sites:  make(map[SiteID]*BuildSite, len(setup.Sites)),
		Nodes:  make(map[NodeID]*ProductionNode, len(setup.Nodes)),
		Robber: setup.RobberStart,
	}
	for _, site := range setup.Sites {
		adjacent := make([]SiteID, len(site.Adjacent))
		copy(adjacent, site.Adjacent)
		board.Sites[site.ID] = &BuildSite{
			ID:       site.ID,
			Slot:     site.Slot,
			Owner:    NoPlayer,
			Built:    NoStructure,
			Adjacent: adjacent,
		}
	}
	for _, node := range setup.Nodes {
		siteIDs := make([]SiteID, len(node.Sites))
		copy(siteIDs, node.Sites)
		board.Nodes[node.ID] = &ProductionNode{
			ID:         node.ID,
			Resource:   node.Resource,
			Activation: node.Activation,
			Sites:      siteIDs,
		}
	}

	// Bank holds the whole economy up-front; starting hands are dealt out of
	// it so initial totals already satisfy conservation.
	needed := setup.StartingHand * setup.Players
	if setup.BankSupply < needed {
		return nil, setupErrorf("bank supply %d cannot cover %d starting cards per resource", setup.BankSupply, needed)
	}
	bank := NewBank(setup.BankSupply)

	players := make([]*PlayerState, setup.Players)
	for i := range players {
		p := newPlayerState(PlayerID(i))
		for _, r := range ResourceTypes() {
			got := bank.Produce(r, setup.StartingHand)
			p.Hand.Add(r, got)
		}
		players[i] = p
	}

	s := &State{
		Board:     board,
		Bank:      bank,
		Players:   players,
		Current:   0,
		Turn:      1,
		Phase:     PhaseAction,
		Winner:    NoPlayer,
		TargetVP:  setup.TargetVP,
		BankRatio: setup.BankRatio,
	}

	for i, start := range setup.Starts {
		pid := PlayerID(i)
		s.place(pid, start.Settlement, Settlement)
		s.place(pid, start.Road, Road)
	}
	return s, nil
}
