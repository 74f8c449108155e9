// Package agent holds the decision-provider contract and the baseline
// providers the benchmark ships with. Providers are untrusted: the engine
// hands them a cloned state view, runs them under a deadline, and classifies
// whatever comes back.
package agent

import (
	"context"
	"math/rand"

	"catanbench/game"
)

// Provider is implemented by anything that can pick an action: a scripted
// baseline, a random policy, or a remote language model. Decide must not
// mutate the view (the engine passes a clone regardless) and may be
// non-deterministic. The legal slice is a hint, not a promise: the validator
// remains the authority on the returned action.
type Provider interface {
	Name() string
	Decide(ctx context.Context, view *game.State, legal []game.Action) (game.Action, error)
}

// Random picks uniformly among the legal hint. It is the zero-intelligence
// baseline agents are scored against.
type Random struct {
	name string
	rng  *rand.Rand
}

func NewRandom(name string, seed int64) *Random {
	return &Random{name: name, rng: rand.New(rand.NewSource(seed))}
}

func (r *Random) Name() string { return r.name }

func (r *Random) Decide(_ context.Context, _ *game.State, legal []game.Action) (game.Action, error) {
	if len(legal) == 0 {
		return game.Action{Type: game.PassTurn}, nil
	}
	return legal[r.rng.Intn(len(legal))], nil
}

// Greedy is the deterministic build-first heuristic: settlements and cities
// before roads, then bank trades, then mandatory discards and robber moves,
// then pass. It never hallucinates, which makes it a useful control for the
// penalty metrics.
type Greedy struct {
	name string
}

func NewGreedy(name string) *Greedy {
	return &Greedy{name: name}
}

func (g *Greedy) Name() string { return g.name }

var greedyOrder = []game.ActionType{
	game.BuildSettlement,
	game.BuildCity,
	game.BuildRoad,
	game.TradeWithBank,
	game.DiscardCards,
	game.MoveRobber,
	game.PassTurn,
}

func (g *Greedy) Decide(_ context.Context, _ *game.State, legal []game.Action) (game.Action, error) {
	for _, want := range greedyOrder {
		for _, act := range legal {
			if act.Type == want {
				return act, nil
			}
		}
	}
	if len(legal) > 0 {
		return legal[0], nil
	}
	return game.Action{Type: game.PassTurn}, nil
}
