package game

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ActionType tags the closed set of moves a decision provider can propose.
type ActionType int

const (
	BuildRoad ActionType = iota
	BuildSettlement
	BuildCity
	TradeWithBank
	TradeWithPlayer
	PassTurn
	MoveRobber
	DiscardCards

	numActionTypes
)

var actionNames = [numActionTypes]string{
	BuildRoad:       "build_road",
	BuildSettlement: "build_settlement",
	BuildCity:       "build_city",
	TradeWithBank:   "trade_with_bank",
	TradeWithPlayer: "trade_with_player",
	PassTurn:        "pass_turn",
	MoveRobber:      "move_robber",
	DiscardCards:    "discard_cards",
}

func (t ActionType) String() string {
	if !t.Valid() {
		return "unknown"
	}
	return actionNames[t]
}

func (t ActionType) Valid() bool {
	return t >= 0 && t < numActionTypes
}

func ParseActionType(name string) (ActionType, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range actionNames {
		if n == name {
			return ActionType(i), true
		}
	}
	return 0, false
}

// ActionTypeNames lists the canonical action names for fuzzy decoding.
func ActionTypeNames() []string {
	return actionNames[:]
}

// Actions cross process boundaries as JSON (decision requests, the event
// log), where the type travels by name so that a remote agent can echo a
// legal-action hint back verbatim.
func (t ActionType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *ActionType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, ok := ParseActionType(name)
	if !ok {
		return fmt.Errorf("unknown action type %q", name)
	}
	*t = parsed
	return nil
}

// Action is the tagged variant handed from providers to the validator. One
// flat struct carries the union of per-variant parameters; which fields are
// meaningful depends on Type:
//
//	BuildRoad/BuildSettlement/BuildCity: Site
//	TradeWithBank:                       Give, GiveCount, Receive
//	TradeWithPlayer:                     Give, GiveCount, To
//	MoveRobber:                          Node, Victim (NoPlayer to skip steal)
//	DiscardCards:                        Give, GiveCount
//	PassTurn:                            nothing
type Action struct {
	Type      ActionType   `json:"type"`
	Site      SiteID       `json:"site"`
	Node      NodeID       `json:"node"`
	Give      ResourceType `json:"give"`
	Receive   ResourceType `json:"receive"`
	GiveCount int          `json:"give_count"`
	To        PlayerID     `json:"to"`
	Victim    PlayerID     `json:"victim"`
}

// MarshalJSON emits only the fields meaningful for the action's variant, so
// a legal-action hint never carries misleading zero values and a robber move
// stealing from player 0 keeps its explicit victim.
func (a Action) MarshalJSON() ([]byte, error) {
	obj := map[string]any{"type": a.Type.String()}
	switch a.Type {
	case BuildRoad, BuildSettlement, BuildCity:
		obj["site"] = int(a.Site)
	case TradeWithBank:
		obj["give"] = a.Give.String()
		obj["give_count"] = a.GiveCount
		obj["receive"] = a.Receive.String()
	case TradeWithPlayer:
		obj["give"] = a.Give.String()
		obj["give_count"] = a.GiveCount
		obj["to"] = int(a.To)
	case MoveRobber:
		obj["node"] = int(a.Node)
		obj["victim"] = int(a.Victim)
	case DiscardCards:
		obj["give"] = a.Give.String()
		obj["give_count"] = a.GiveCount
	}
	return json.Marshal(obj)
}

func (a Action) String() string {
	switch a.Type {
	case BuildRoad, BuildSettlement, BuildCity:
		return fmt.Sprintf("%s site=%d", a.Type, a.Site)
	case TradeWithBank:
		return fmt.Sprintf("%s give=%d %s receive=%s", a.Type, a.GiveCount, a.Give, a.Receive)
	case TradeWithPlayer:
		return fmt.Sprintf("%s give=%d %s to=player%d", a.Type, a.GiveCount, a.Give, a.To)
	case MoveRobber:
		return fmt.Sprintf("%s node=%d victim=player%d", a.Type, a.Node, a.Victim)
	case DiscardCards:
		return fmt.Sprintf("%s give=%d %s", a.Type, a.GiveCount, a.Give)
	default:
		return a.Type.String()
	}
}

// ResourceDelta is one hand or bank movement caused by an applied action or
// a production payout. Player == NoPlayer means the bank side.
type ResourceDelta struct {
	Player   PlayerID     `json:"player"`
	Resource ResourceType `json:"resource"`
	Amount   int          `json:"amount"`
}
