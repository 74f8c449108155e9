package game

import "golang.org/x/exp/maps"

// PlayerID indexes into the fixed turn order of a match.
type PlayerID int

// NoPlayer marks unowned sites, bank-side deltas, and drawn matches.
const NoPlayer PlayerID = -1

// PlayerState is the per-agent mutable record. Victory points are always
// recomputed from built structures (State.VictoryPoints), never stored here.
type PlayerState struct {
	ID    PlayerID
	Hand  Hand
	Sites map[SiteID]struct{}

	BankTrades   int
	PlayerTrades int
	Builds       int
}

func newPlayerState(id PlayerID) *PlayerState {
	return &PlayerState{
		ID:    id,
		Hand:  NewHand(),
		Sites: make(map[SiteID]struct{}),
	}
}

// TotalCards is the hand size used by the discard-on-seven rule.
func (p *PlayerState) TotalCards() int {
	return p.Hand.Total()
}

func (p *PlayerState) clone() *PlayerState {
	return &PlayerState{
		ID:           p.ID,
		Hand:         p.Hand.Clone(),
		Sites:        maps.Clone(p.Sites),
		BankTrades:   p.BankTrades,
		PlayerTrades: p.PlayerTrades,
		Builds:       p.Builds,
	}
}
