// Package validator classifies proposed actions against a game state. The
// result is data, never a fault: the orchestrator records it and keeps the
// match running no matter how garbled the proposal was.
//
// Validation runs two ordered checks, and the failing check decides the
// hallucination class:
//
//  1. Reference check: every id and parameter must name an object that
//     exists in the state. Failure means the agent invented a fact about
//     the world (IndexError).
//  2. Rule check: with valid references, the action must be legal. Failure
//     means the agent understood the world but proposed an illegal move
//     (ActionFailure).
package validator

import (
	"fmt"

	"catanbench/game"
)

// Kind is the top-level classification of a decision outcome.
type Kind int

const (
	Accepted Kind = iota
	IndexError
	ActionFailure
)

var kindNames = map[Kind]string{
	Accepted:      "accepted",
	IndexError:    "index_error",
	ActionFailure: "action_failure",
}

func (k Kind) String() string { return kindNames[k] }

// Failure refines ActionFailure. Timeout and ParseError are degenerate
// sub-kinds produced by the orchestrator rather than by rule checks.
type Failure int

const (
	FailureNone Failure = iota
	FailureRule
	FailureInsufficientResources
	FailureInsufficientBankSupply
	FailureTimeout
	FailureParse
)

var failureNames = map[Failure]string{
	FailureNone:                   "",
	FailureRule:                   "rule_violation",
	FailureInsufficientResources:  "insufficient_resources",
	FailureInsufficientBankSupply: "insufficient_bank_supply",
	FailureTimeout:                "timeout",
	FailureParse:                  "parse_error",
}

func (f Failure) String() string { return failureNames[f] }

// Outcome is the classification of one proposed action. It is stored on the
// decision event verbatim.
type Outcome struct {
	Kind    Kind    `json:"kind"`
	Failure Failure `json:"failure,omitempty"`
	Reason  string  `json:"reason,omitempty"`
}

func (o Outcome) Accepted() bool { return o.Kind == Accepted }

// Rejected reports whether the outcome counts as a hallucination.
func (o Outcome) Rejected() bool { return o.Kind != Accepted }

func (o Outcome) String() string {
	if o.Accepted() {
		return "accepted"
	}
	if o.Failure != FailureNone {
		return fmt.Sprintf("%s(%s): %s", o.Kind, o.Failure, o.Reason)
	}
	return fmt.Sprintf("%s: %s", o.Kind, o.Reason)
}

func accept() Outcome {
	return Outcome{Kind: Accepted}
}

func indexErrorf(format string, args ...any) Outcome {
	return Outcome{Kind: IndexError, Reason: fmt.Sprintf(format, args...)}
}

func failf(f Failure, format string, args ...any) Outcome {
	return Outcome{Kind: ActionFailure, Failure: f, Reason: fmt.Sprintf(format, args...)}
}

// Timeout is the outcome for a decision deadline expiry.
func Timeout(reason string) Outcome {
	return Outcome{Kind: ActionFailure, Failure: FailureTimeout, Reason: reason}
}

// Parse is the outcome for undecodable provider output.
func Parse(reason string) Outcome {
	return Outcome{Kind: ActionFailure, Failure: FailureParse, Reason: reason}
}

// BadReference is the outcome for decoded output naming a nonexistent game
// object (e.g. an unknown resource name).
func BadReference(reason string) Outcome {
	return Outcome{Kind: IndexError, Reason: reason}
}

// Validate classifies act as proposed by pid against s. It never mutates s,
// so re-validating a rejected action against the same state yields the same
// classification.
func Validate(s *game.State, pid game.PlayerID, act game.Action) Outcome {
	// Reference checks shared by all variants.
	p := s.Player(pid)
	if p == nil {
		return indexErrorf("player %d does not exist", pid)
	}
	if !act.Type.Valid() {
		return failf(FailureParse, "unknown action type %d", act.Type)
	}
	if s.Terminal {
		return failf(FailureRule, "match is over")
	}

	switch act.Type {
	case game.BuildRoad:
		return validateBuild(s, pid, act.Site, game.Road)
	case game.BuildSettlement:
		return validateBuild(s, pid, act.Site, game.Settlement)
	case game.BuildCity:
		return validateBuild(s, pid, act.Site, game.City)
	case game.TradeWithBank:
		return validateBankTrade(s, p, act)
	case game.TradeWithPlayer:
		return validatePlayerTrade(s, p, act)
	case game.PassTurn:
		return validatePass(s, pid)
	case game.MoveRobber:
		return validateRobber(s, pid, act)
	case game.DiscardCards:
		return validateDiscard(s, p, act)
	default:
		return failf(FailureParse, "unknown action type %d", act.Type)
	}
}

func requirePhase(s *game.State, pid game.PlayerID, want game.Phase, act game.ActionType) (Outcome, bool) {
	if s.Phase != want {
		return failf(FailureRule, "%s not allowed during %s phase", act, s.Phase), false
	}
	if want != game.PhaseDiscard && s.CurrentPlayer().ID != pid {
		return failf(FailureRule, "not player %d's turn", pid), false
	}
	return Outcome{}, true
}

func validateBuild(s *game.State, pid game.PlayerID, siteID game.SiteID, structure game.Structure) Outcome {
	// Reference check first: a nonexistent site is a hallucinated fact even
	// when it is also the wrong phase.
	site, ok := s.Board.Site(siteID)
	if !ok {
		return indexErrorf("site %d does not exist", siteID)
	}

	var actType game.ActionType
	switch structure {
	case game.Road:
		actType = game.BuildRoad
	case game.Settlement:
		actType = game.BuildSettlement
	default:
		actType = game.BuildCity
	}
	if out, ok := requirePhase(s, pid, game.PhaseAction, actType); !ok {
		return out
	}

	switch structure {
	case game.Road:
		if site.Slot != game.PathSlot {
			return failf(FailureRule, "site %d is a corner, roads need a path", siteID)
		}
		if site.Owner != game.NoPlayer {
			return failf(FailureRule, "site %d already has a road", siteID)
		}
		if !s.Board.RoadConnected(site, pid) {
			return failf(FailureRule, "site %d does not touch player %d's network", siteID, pid)
		}
	case game.Settlement:
		if site.Slot != game.CornerSlot {
			return failf(FailureRule, "site %d is a path, settlements need a corner", siteID)
		}
		if site.Owner != game.NoPlayer {
			return failf(FailureRule, "site %d is already occupied", siteID)
		}
		if !s.Board.SettlementConnected(site, pid) {
			return failf(FailureRule, "site %d is not connected to player %d's roads", siteID, pid)
		}
	case game.City:
		if site.Owner != pid {
			return failf(FailureRule, "site %d is not owned by player %d", siteID, pid)
		}
		if site.Built != game.Settlement {
			return failf(FailureRule, "site %d has no settlement to upgrade", siteID)
		}
	}

	p := s.Player(pid)
	for r, n := range game.Cost(structure) {
		if p.Hand.Count(r) < n {
			return failf(FailureInsufficientResources,
				"building a %s needs %d %s, player %d has %d", structure, n, r, pid, p.Hand.Count(r))
		}
	}
	return accept()
}

func validateBankTrade(s *game.State, p *game.PlayerState, act game.Action) Outcome {
	if !act.Give.Valid() {
		return indexErrorf("unknown resource %d offered", act.Give)
	}
	if !act.Receive.Valid() {
		return indexErrorf("unknown resource %d requested", act.Receive)
	}
	if out, ok := requirePhase(s, p.ID, game.PhaseAction, game.TradeWithBank); !ok {
		return out
	}
	if act.Give == act.Receive {
		return failf(FailureRule, "cannot trade %s for itself", act.Give)
	}
	if act.GiveCount != s.BankRatio {
		return failf(FailureRule, "bank trades at %d:1, offered %d", s.BankRatio, act.GiveCount)
	}
	if p.Hand.Count(act.Give) < act.GiveCount {
		return failf(FailureInsufficientResources,
			"player %d holds %d %s, needs %d", p.ID, p.Hand.Count(act.Give), act.Give, act.GiveCount)
	}
	if s.Bank.Supply(act.Receive) < 1 {
		return failf(FailureInsufficientBankSupply, "bank is out of %s", act.Receive)
	}
	return accept()
}

func validatePlayerTrade(s *game.State, p *game.PlayerState, act game.Action) Outcome {
	if !act.Give.Valid() {
		return indexErrorf("unknown resource %d offered", act.Give)
	}
	if s.Player(act.To) == nil {
		return indexErrorf("player %d does not exist", act.To)
	}
	if out, ok := requirePhase(s, p.ID, game.PhaseAction, game.TradeWithPlayer); !ok {
		return out
	}
	if act.To == p.ID {
		return failf(FailureRule, "player %d cannot trade with themselves", p.ID)
	}
	if act.GiveCount < 1 {
		return failf(FailureRule, "trade must move at least one card")
	}
	if p.Hand.Count(act.Give) < act.GiveCount {
		return failf(FailureInsufficientResources,
			"player %d holds %d %s, offered %d", p.ID, p.Hand.Count(act.Give), act.Give, act.GiveCount)
	}
	return accept()
}

func validatePass(s *game.State, pid game.PlayerID) Outcome {
	if out, ok := requirePhase(s, pid, game.PhaseAction, game.PassTurn); !ok {
		return out
	}
	return accept()
}

func validateRobber(s *game.State, pid game.PlayerID, act game.Action) Outcome {
	node, ok := s.Board.Node(act.Node)
	if !ok {
		return indexErrorf("node %d does not exist", act.Node)
	}
	if act.Victim != game.NoPlayer && s.Player(act.Victim) == nil {
		return indexErrorf("player %d does not exist", act.Victim)
	}
	if out, ok := requirePhase(s, pid, game.PhaseRobber, game.MoveRobber); !ok {
		return out
	}
	if act.Node == s.Board.Robber {
		return failf(FailureRule, "robber is already on node %d", act.Node)
	}
	if act.Victim != game.NoPlayer {
		if act.Victim == pid {
			return failf(FailureRule, "player %d cannot steal from themselves", pid)
		}
		adjacent := false
		for _, owner := range s.Board.AdjacentOwners(node) {
			if owner == act.Victim {
				adjacent = true
				break
			}
		}
		if !adjacent {
			return failf(FailureRule, "player %d has no building adjacent to node %d", act.Victim, act.Node)
		}
		if s.Player(act.Victim).TotalCards() == 0 {
			return failf(FailureRule, "player %d has no cards to steal", act.Victim)
		}
	}
	return accept()
}

func validateDiscard(s *game.State, p *game.PlayerState, act game.Action) Outcome {
	if !act.Give.Valid() {
		return indexErrorf("unknown resource %d discarded", act.Give)
	}
	if s.Phase != game.PhaseDiscard {
		return failf(FailureRule, "%s not allowed during %s phase", game.DiscardCards, s.Phase)
	}
	over := p.TotalCards() - game.HandLimit
	if over <= 0 {
		return failf(FailureRule, "player %d is at the hand limit, nothing to discard", p.ID)
	}
	if act.GiveCount < 1 {
		return failf(FailureRule, "discard must drop at least one card")
	}
	if act.GiveCount > over {
		return failf(FailureRule, "player %d must discard %d cards, offered %d", p.ID, over, act.GiveCount)
	}
	if p.Hand.Count(act.Give) < act.GiveCount {
		return failf(FailureInsufficientResources,
			"player %d holds %d %s, offered %d", p.ID, p.Hand.Count(act.Give), act.Give, act.GiveCount)
	}
	return accept()
}
