// Package metrics folds finished event logs into per-agent benchmark
// scores. Every fold is a plain counter increment, so aggregation is
// associative and commutative: event order never matters and partial
// aggregators from concurrent matches merge into the same totals.
package metrics

import (
	"golang.org/x/exp/slices"

	"catanbench/eventlog"
	"catanbench/game"
	"catanbench/validator"
)

// Weights are the scoring policy parameters. They are configuration, not
// law: the penalty weighting between index errors and action failures and
// the leftover-resource pressure on efficiency are deliberately tunable.
type Weights struct {
	// IndexError and ActionFailure weight the two hallucination classes in
	// the penalty score; index errors (invented game objects) cost more.
	IndexError    float64 `yaml:"index_error" env:"CATANBENCH_WEIGHT_INDEX_ERROR"`
	ActionFailure float64 `yaml:"action_failure" env:"CATANBENCH_WEIGHT_ACTION_FAILURE"`
	// Leftover scales how hard unspent final resources drag efficiency.
	Leftover float64 `yaml:"leftover" env:"CATANBENCH_WEIGHT_LEFTOVER"`
	// TradeActivityCap is the per-game trade count at which the trade
	// activity term saturates.
	TradeActivityCap float64 `yaml:"trade_activity_cap" env:"CATANBENCH_WEIGHT_TRADE_CAP"`
}

func DefaultWeights() Weights {
	return Weights{
		IndexError:       6,
		ActionFailure:    4,
		Leftover:         0.25,
		TradeActivityCap: 10,
	}
}

// Tally is one agent's raw counters. Everything in a Tally is additive.
type Tally struct {
	Decisions      int
	IndexErrors    int
	ActionFailures int
	Timeouts       int
	ParseErrors    int

	Builds       int
	BankTrades   int
	PlayerTrades int

	Games       int
	Wins        int
	Draws       int
	TurnsPlayed int
	MatchTurns  int
	Leftover    int
}

func (t *Tally) add(o *Tally) {
	t.Decisions += o.Decisions
	t.IndexErrors += o.IndexErrors
	t.ActionFailures += o.ActionFailures
	t.Timeouts += o.Timeouts
	t.ParseErrors += o.ParseErrors
	t.Builds += o.Builds
	t.BankTrades += o.BankTrades
	t.PlayerTrades += o.PlayerTrades
	t.Games += o.Games
	t.Wins += o.Wins
	t.Draws += o.Draws
	t.TurnsPlayed += o.TurnsPlayed
	t.MatchTurns += o.MatchTurns
	t.Leftover += o.Leftover
}

// Aggregator folds events into per-agent tallies. Not safe for concurrent
// use; concurrent matches go through a Collector or merge afterwards.
type Aggregator struct {
	tallies map[string]*Tally
}

func NewAggregator() *Aggregator {
	return &Aggregator{tallies: map[string]*Tally{}}
}

func (a *Aggregator) tally(agent string) *Tally {
	t, ok := a.tallies[agent]
	if !ok {
		t = &Tally{}
		a.tallies[agent] = t
	}
	return t
}

// Add folds one event. Decision events feed the hallucination and action
// counters; the match-end event feeds games, wins, turns and leftovers.
func (a *Aggregator) Add(ev eventlog.Event) {
	switch ev.Kind {
	case eventlog.KindDecision:
		t := a.tally(ev.Agent)
		t.Decisions++
		switch ev.Outcome.Kind {
		case validator.IndexError:
			t.IndexErrors++
		case validator.ActionFailure:
			t.ActionFailures++
			switch ev.Outcome.Failure {
			case validator.FailureTimeout:
				t.Timeouts++
			case validator.FailureParse:
				t.ParseErrors++
			}
		case validator.Accepted:
			if ev.Action == nil {
				return
			}
			switch ev.Action.Type {
			case game.BuildRoad, game.BuildSettlement, game.BuildCity:
				t.Builds++
			case game.TradeWithBank:
				t.BankTrades++
			case game.TradeWithPlayer:
				t.PlayerTrades++
			}
		}

	case eventlog.KindMatchEnd:
		if ev.Result == nil {
			return
		}
		for _, p := range ev.Result.Players {
			t := a.tally(p.Agent)
			if ev.Result.Aborted {
				// Aborted matches never count toward win-rate scoring.
				continue
			}
			t.Games++
			t.MatchTurns += ev.Result.Turns
			t.TurnsPlayed += p.TurnsPlayed
			t.Leftover += p.Leftover
			if ev.Result.Draw {
				t.Draws++
			} else if ev.Result.Winner == p.Player {
				t.Wins++
			}
		}
	}
}

// AddAll folds a slice of events.
func (a *Aggregator) AddAll(events []eventlog.Event) {
	for _, ev := range events {
		a.Add(ev)
	}
}

// Merge folds another aggregator's tallies into this one.
func (a *Aggregator) Merge(o *Aggregator) {
	for agent, t := range o.tallies {
		a.tally(agent).add(t)
	}
}

// AgentReport is the computed scorecard for one agent.
type AgentReport struct {
	Agent string

	GamesPlayed    int
	Wins           int
	Draws          int
	Decisions      int
	IndexErrors    int
	ActionFailures int
	Timeouts       int
	ParseErrors    int
	Builds         int
	BankTrades     int
	PlayerTrades   int

	WinRate           float64
	HallucinationRate float64
	PenaltyScore      float64
	BuildRate         float64
	AvgLeftover       float64
	EfficiencyScore   float64
	AvgMatchTurns     float64
	TradeActivity     float64
	OverallScore      float64
}

// Report computes the scorecards under the given weights, sorted by overall
// score descending, ties by name.
func (a *Aggregator) Report(w Weights) []AgentReport {
	agents := make([]string, 0, len(a.tallies))
	for agent := range a.tallies {
		agents = append(agents, agent)
	}
	slices.Sort(agents)

	reports := make([]AgentReport, 0, len(agents))
	for _, agent := range agents {
		t := a.tallies[agent]
		r := AgentReport{
			Agent:          agent,
			GamesPlayed:    t.Games,
			Wins:           t.Wins,
			Draws:          t.Draws,
			Decisions:      t.Decisions,
			IndexErrors:    t.IndexErrors,
			ActionFailures: t.ActionFailures,
			Timeouts:       t.Timeouts,
			ParseErrors:    t.ParseErrors,
			Builds:         t.Builds,
			BankTrades:     t.BankTrades,
			PlayerTrades:   t.PlayerTrades,
		}
		if t.Games > 0 {
			r.WinRate = float64(t.Wins) / float64(t.Games)
			r.AvgMatchTurns = float64(t.MatchTurns) / float64(t.Games)
			r.AvgLeftover = float64(t.Leftover) / float64(t.Games)
		}
		if t.Decisions > 0 {
			idxRate := float64(t.IndexErrors) / float64(t.Decisions)
			failRate := float64(t.ActionFailures) / float64(t.Decisions)
			r.HallucinationRate = idxRate + failRate
			r.PenaltyScore = clamp01(1 - w.IndexError*idxRate - w.ActionFailure*failRate)
		}
		if t.TurnsPlayed > 0 {
			r.BuildRate = float64(t.Builds) / float64(t.TurnsPlayed)
		}
		// Efficiency rewards converting resources into structures: build
		// pace divided down by the cards left rotting at game end.
		r.EfficiencyScore = r.BuildRate / (1 + w.Leftover*r.AvgLeftover)
		if t.Games > 0 && w.TradeActivityCap > 0 {
			perGame := float64(t.BankTrades+t.PlayerTrades) / float64(t.Games)
			r.TradeActivity = clamp01(perGame / w.TradeActivityCap)
		}
		r.OverallScore = r.WinRate * r.PenaltyScore * (0.5 + 0.3*r.TradeActivity + 0.2*clamp01(r.EfficiencyScore))
		reports = append(reports, r)
	}

	slices.SortStableFunc(reports, func(x, y AgentReport) int {
		switch {
		case x.OverallScore > y.OverallScore:
			return -1
		case x.OverallScore < y.OverallScore:
			return 1
		default:
			return 0
		}
	})
	return reports
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
