package validator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"catanbench/game"
)

// lineSetup builds a two-player board: corners 0..7 joined by paths
// 100..106, player 0 starting on the left end and player 1 on the right.
func lineSetup() game.Setup {
	sites := []game.SiteSetup{}
	for corner := 0; corner < 8; corner++ {
		var adjacent []game.SiteID
		if corner > 0 {
			adjacent = append(adjacent, game.SiteID(99+corner))
		}
		if corner < 7 {
			adjacent = append(adjacent, game.SiteID(100+corner))
		}
		sites = append(sites, game.SiteSetup{ID: game.SiteID(corner), Slot: game.CornerSlot, Adjacent: adjacent})
	}
	for i := 0; i < 7; i++ {
		sites = append(sites, game.SiteSetup{
			ID: game.SiteID(100 + i), Slot: game.PathSlot,
			Adjacent: []game.SiteID{game.SiteID(i), game.SiteID(i + 1)},
		})
	}
	return game.Setup{
		Players:      2,
		TargetVP:     4,
		BankRatio:    4,
		BankSupply:   19,
		StartingHand: 3,
		RobberStart:  3,
		Nodes: []game.NodeSetup{
			{ID: 1, Resource: game.Wheat, Activation: 6, Sites: []game.SiteID{0, 1}},
			{ID: 2, Resource: game.Ore, Activation: 8, Sites: []game.SiteID{6, 7}},
			{ID: 3, Resource: game.Sheep, Activation: 5, Sites: []game.SiteID{3, 4}},
		},
		Sites: sites,
		Starts: []game.StartSetup{
			{Settlement: 0, Road: 100},
			{Settlement: 7, Road: 106},
		},
	}
}

func newState(t *testing.T, setup game.Setup) *game.State {
	t.Helper()
	s, err := game.NewState(setup)
	require.NoError(t, err)
	return s
}

func TestValidateInventedSiteIsIndexError(t *testing.T) {
	s := newState(t, lineSetup())

	out := Validate(s, 0, game.Action{Type: game.BuildRoad, Site: 999})
	require.Equal(t, IndexError, out.Kind)
	require.True(t, out.Rejected())
}

func TestValidateUnconnectedRoadIsRuleFailure(t *testing.T) {
	s := newState(t, lineSetup())

	// Path 104 sits between corners 4 and 5, far from player 0's network.
	out := Validate(s, 0, game.Action{Type: game.BuildRoad, Site: 104})
	require.Equal(t, ActionFailure, out.Kind)
	require.Equal(t, FailureRule, out.Failure)
}

func TestValidateUnaffordableBuildLeavesStateUntouched(t *testing.T) {
	s := newState(t, lineSetup())
	s.Player(0).Hand = game.Hand{game.Brick: 1}

	act := game.Action{Type: game.BuildRoad, Site: 101}
	out := Validate(s, 0, act)
	require.Equal(t, ActionFailure, out.Kind)
	require.Equal(t, FailureInsufficientResources, out.Failure)
	require.Equal(t, 1, s.Player(0).Hand.Count(game.Brick))

	// Re-validating the same rejected action classifies identically.
	require.Equal(t, out, Validate(s, 0, act))
}

func TestValidateBankTrade(t *testing.T) {
	s := newState(t, lineSetup())
	s.Player(0).Hand = game.Hand{game.Wood: 4}

	out := Validate(s, 0, game.Action{Type: game.TradeWithBank, Give: game.Wood, GiveCount: 3, Receive: game.Ore})
	require.Equal(t, FailureRule, out.Failure, "off-ratio trade")

	out = Validate(s, 0, game.Action{Type: game.TradeWithBank, Give: game.Wheat, GiveCount: 4, Receive: game.Ore})
	require.Equal(t, FailureInsufficientResources, out.Failure, "giving cards not held")

	out = Validate(s, 0, game.Action{Type: game.TradeWithBank, Give: game.Wood, GiveCount: 4, Receive: game.Wood})
	require.Equal(t, FailureRule, out.Failure, "trading a resource for itself")

	out = Validate(s, 0, game.Action{Type: game.TradeWithBank, Give: game.Wood, GiveCount: 4, Receive: game.Ore})
	require.True(t, out.Accepted())
}

func TestValidateBankTradeOutOfSupply(t *testing.T) {
	setup := lineSetup()
	// A bank that deals out its entire supply as starting hands.
	setup.BankRatio = 2
	setup.BankSupply = 6
	s := newState(t, setup)

	out := Validate(s, 0, game.Action{Type: game.TradeWithBank, Give: game.Wood, GiveCount: 2, Receive: game.Ore})
	require.Equal(t, ActionFailure, out.Kind)
	require.Equal(t, FailureInsufficientBankSupply, out.Failure)
}

func TestValidateTurnAndPhase(t *testing.T) {
	s := newState(t, lineSetup())

	out := Validate(s, 1, game.Action{Type: game.PassTurn})
	require.Equal(t, FailureRule, out.Failure, "acting out of turn")

	out = Validate(s, 0, game.Action{Type: game.MoveRobber, Node: 1})
	require.Equal(t, FailureRule, out.Failure, "robber move outside robber phase")

	out = Validate(s, 0, game.Action{Type: game.DiscardCards, Give: game.Wood, GiveCount: 1})
	require.Equal(t, FailureRule, out.Failure, "discard outside discard phase")
}

func TestValidateRobberMove(t *testing.T) {
	s := newState(t, lineSetup())
	s.Phase = game.PhaseRobber

	out := Validate(s, 0, game.Action{Type: game.MoveRobber, Node: 42, Victim: game.NoPlayer})
	require.Equal(t, IndexError, out.Kind, "invented node")

	out = Validate(s, 0, game.Action{Type: game.MoveRobber, Node: 3, Victim: game.NoPlayer})
	require.Equal(t, FailureRule, out.Failure, "robber already on the node")

	out = Validate(s, 0, game.Action{Type: game.MoveRobber, Node: 1, Victim: 1})
	require.Equal(t, FailureRule, out.Failure, "victim without adjacent building")

	out = Validate(s, 0, game.Action{Type: game.MoveRobber, Node: 2, Victim: 1})
	require.True(t, out.Accepted())

	out = Validate(s, 0, game.Action{Type: game.MoveRobber, Node: 1, Victim: game.NoPlayer})
	require.True(t, out.Accepted(), "relocation without a steal")
}

func TestValidateDiscard(t *testing.T) {
	s := newState(t, lineSetup())
	s.Phase = game.PhaseDiscard
	s.Player(1).Hand = game.Hand{game.Wood: 8, game.Brick: 2}

	// Discards come from non-turn players too.
	out := Validate(s, 1, game.Action{Type: game.DiscardCards, Give: game.Wood, GiveCount: 3})
	require.True(t, out.Accepted())

	out = Validate(s, 1, game.Action{Type: game.DiscardCards, Give: game.Wood, GiveCount: 4})
	require.Equal(t, FailureRule, out.Failure, "discarding more than required")

	out = Validate(s, 1, game.Action{Type: game.DiscardCards, Give: game.Brick, GiveCount: 3})
	require.Equal(t, FailureInsufficientResources, out.Failure)

	s.Player(0).Hand = game.Hand{game.Wood: 2}
	out = Validate(s, 0, game.Action{Type: game.DiscardCards, Give: game.Wood, GiveCount: 1})
	require.Equal(t, FailureRule, out.Failure, "player at the limit has nothing to discard")
}

func TestValidateTerminalState(t *testing.T) {
	s := newState(t, lineSetup())
	s.Terminal = true

	out := Validate(s, 0, game.Action{Type: game.PassTurn})
	require.Equal(t, ActionFailure, out.Kind)
}

func TestValidateUnknownPlayer(t *testing.T) {
	s := newState(t, lineSetup())

	out := Validate(s, 9, game.Action{Type: game.PassTurn})
	require.Equal(t, IndexError, out.Kind)
}
