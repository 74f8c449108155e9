// Package eventlog defines the append-only decision record stream a match
// produces. Events are the sole input to the metrics pipeline: a finished
// log must be fully replayable into the same statistics without re-running
// the match.
package eventlog

import (
	"catanbench/game"
	"catanbench/validator"
)

// Kind discriminates event records.
type Kind string

const (
	// KindDecision is one provider decision and its classification.
	KindDecision Kind = "decision"
	// KindMatchEnd closes a log with the match result and final standings.
	KindMatchEnd Kind = "match_end"
)

// Event is immutable once appended.
type Event struct {
	MatchID string `json:"match_id"`
	Seq     int    `json:"seq"`
	Kind    Kind   `json:"kind"`

	Turn   int           `json:"turn,omitempty"`
	Player game.PlayerID `json:"player,omitempty"`
	Agent  string        `json:"agent,omitempty"`

	// Raw is the provider output exactly as received, kept for replay and
	// failure analysis. Empty for synthetic decisions (forced fallbacks).
	Raw     string               `json:"raw,omitempty"`
	Action  *game.Action         `json:"action,omitempty"`
	Outcome validator.Outcome    `json:"outcome,omitempty"`
	Deltas  []game.ResourceDelta `json:"deltas,omitempty"`

	Result *MatchResult `json:"result,omitempty"`
}

// MatchResult summarizes a finished (or aborted) match.
type MatchResult struct {
	Winner  game.PlayerID   `json:"winner"` // NoPlayer on draw or abort
	Draw    bool            `json:"draw"`
	Aborted bool            `json:"aborted"`
	Turns   int             `json:"turns"`
	Players []PlayerSummary `json:"players"`
}

// PlayerSummary carries the per-player end-of-match numbers the aggregator
// needs without replaying the whole state.
type PlayerSummary struct {
	Player        game.PlayerID `json:"player"`
	Agent         string        `json:"agent"`
	VictoryPoints int           `json:"victory_points"`
	TurnsPlayed   int           `json:"turns_played"`
	Leftover      int           `json:"leftover"` // unspent cards at match end
	Builds        int           `json:"builds"`
	BankTrades    int           `json:"bank_trades"`
	PlayerTrades  int           `json:"player_trades"`
}

// Log is the in-memory per-match event buffer. A match owns its log
// exclusively; sequencing happens here, not at the sink.
type Log struct {
	matchID string
	events  []Event
}

func NewLog(matchID string) *Log {
	return &Log{matchID: matchID}
}

func (l *Log) MatchID() string { return l.matchID }

// Append stamps the event with the match id and next sequence number.
func (l *Log) Append(ev Event) {
	ev.MatchID = l.matchID
	ev.Seq = len(l.events)
	l.events = append(l.events, ev)
}

// Events returns a copy of the recorded stream.
func (l *Log) Events() []Event {
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

func (l *Log) Len() int { return len(l.events) }
