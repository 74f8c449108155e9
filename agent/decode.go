package agent

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"catanbench/game"
)

// DecodeErrorKind separates output that could not be understood at all from
// output that parsed fine but referenced something that does not exist. The
// engine maps the former to a parse failure and the latter to an index
// error.
type DecodeErrorKind int

const (
	DecodeParse DecodeErrorKind = iota
	DecodeReference
)

// DecodeError is a classified decoding failure.
type DecodeError struct {
	Kind   DecodeErrorKind
	Reason string
}

func (e *DecodeError) Error() string { return e.Reason }

func parseErr(reason string) *DecodeError {
	return &DecodeError{Kind: DecodeParse, Reason: reason}
}

func referenceErr(reason string) *DecodeError {
	return &DecodeError{Kind: DecodeReference, Reason: reason}
}

// actionSchema structurally validates a decoded action object before any
// name resolution: required type string, integer ids, no surprises in the
// field types. Unknown extra keys are tolerated; models love to add them.
const actionSchema = `{
  "type": "object",
  "properties": {
    "type": {"type": "string"},
    "site": {"type": "integer"},
    "node": {"type": "integer"},
    "give": {"type": "string"},
    "receive": {"type": "string"},
    "give_count": {"type": "integer", "minimum": 0},
    "to": {"type": "integer"},
    "victim": {"type": "integer"}
  },
  "required": ["type"]
}`

var compiledActionSchema = jsonschema.MustCompileString("action.schema.json", actionSchema)

// requiredFields lists the keys each action variant must carry. The schema
// cannot express them because the variant is only known after fuzzy type
// resolution. Victim stays optional on move_robber: absence means no steal.
var requiredFields = map[game.ActionType][]string{
	game.BuildRoad:       {"site"},
	game.BuildSettlement: {"site"},
	game.BuildCity:       {"site"},
	game.TradeWithBank:   {"give", "give_count", "receive"},
	game.TradeWithPlayer: {"give", "give_count", "to"},
	game.MoveRobber:      {"node"},
	game.DiscardCards:    {"give", "give_count"},
}

// fencedJSON strips markdown code fences; jsonObject grabs the first {...}
// block out of surrounding prose.
var (
	fencedJSON = regexp.MustCompile("(?is)```(?:json)?\\s*|\\s*```")
	jsonObject = regexp.MustCompile(`(?s)\{.*\}`)
)

// Decoder turns raw provider output into a typed Action. It tries hard
// before giving up: fenced code blocks and surrounding prose are tolerated,
// and near-miss action or resource names are recovered by edit distance so
// that a typo ("build_setlement") is not scored the same as garbage.
type Decoder struct{}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode parses raw into an Action or returns a classified DecodeError.
func (d *Decoder) Decode(raw []byte) (game.Action, *DecodeError) {
	obj, ok := extractObject(raw)
	if !ok {
		return game.Action{}, parseErr("no JSON object found in response")
	}
	if err := compiledActionSchema.Validate(obj); err != nil {
		return game.Action{}, parseErr("action object failed schema validation: " + err.Error())
	}

	typeName, _ := obj["type"].(string)
	typeIdx, ok := resolveName(typeName, game.ActionTypeNames())
	if !ok {
		return game.Action{}, parseErr("unknown action type " + strconv.Quote(typeName))
	}
	for _, key := range requiredFields[game.ActionType(typeIdx)] {
		if _, present := obj[key]; !present {
			return game.Action{}, parseErr("action " + game.ActionType(typeIdx).String() + " missing required field " + strconv.Quote(key))
		}
	}

	act := game.Action{
		Type:   game.ActionType(typeIdx),
		Site:   game.SiteID(intField(obj, "site")),
		Node:   game.NodeID(intField(obj, "node")),
		To:     game.PlayerID(intField(obj, "to")),
		Victim: game.NoPlayer,
	}
	if _, present := obj["victim"]; present {
		act.Victim = game.PlayerID(intField(obj, "victim"))
	}
	act.GiveCount = intField(obj, "give_count")

	if name, present := obj["give"].(string); present {
		idx, ok := resolveName(name, game.ResourceNames())
		if !ok {
			return game.Action{}, referenceErr("unknown resource " + strconv.Quote(name))
		}
		act.Give = game.ResourceType(idx)
	}
	if name, present := obj["receive"].(string); present {
		idx, ok := resolveName(name, game.ResourceNames())
		if !ok {
			return game.Action{}, referenceErr("unknown resource " + strconv.Quote(name))
		}
		act.Receive = game.ResourceType(idx)
	}
	return act, nil
}

// extractObject unmarshals the first JSON object it can find in raw.
func extractObject(raw []byte) (map[string]any, bool) {
	candidates := []string{
		strings.TrimSpace(string(raw)),
		strings.TrimSpace(fencedJSON.ReplaceAllString(string(raw), "")),
	}
	if m := jsonObject.FindString(string(raw)); m != "" {
		candidates = append(candidates, m)
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(c), &obj); err == nil {
			return obj, true
		}
	}
	return nil, false
}

// resolveName matches name against candidates, exact first, then by edit
// distance with a length-scaled limit. Distant garbage stays unresolved.
func resolveName(name string, candidates []string) (int, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")
	if name == "" {
		return 0, false
	}
	for i, c := range candidates {
		if c == name {
			return i, true
		}
	}
	bestIdx, bestDist := -1, 0
	for i, c := range candidates {
		dist := levenshtein.ComputeDistance(name, c)
		if dist > editLimit(len(c)) {
			continue
		}
		if bestIdx == -1 || dist < bestDist {
			bestIdx, bestDist = i, dist
		}
	}
	return bestIdx, bestIdx >= 0
}

// editLimit scales the tolerated edit distance with the candidate length so
// short names like "ore" do not absorb unrelated words.
func editLimit(n int) int {
	switch {
	case n <= 4:
		return 1
	case n <= 8:
		return 2
	default:
		return 3
	}
}

// intField reads a numeric field that arrived as a JSON number.
func intField(obj map[string]any, key string) int {
	switch v := obj[key].(type) {
	case float64:
		return int(v)
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	default:
		return 0
	}
}
