// Package engine drives one match: dice, production, robber resolution,
// provider queries under a deadline, validation, and the event log. A bad
// decision is data, never a fault; the engine always produces a valid next
// state and keeps going.
package engine

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"catanbench/agent"
	"catanbench/eventlog"
	"catanbench/game"
	"catanbench/validator"
)

const (
	defaultDecisionTimeout = 5 * time.Second
	defaultAttemptCap      = 5
	defaultTurnCap         = 200

	// Hard bound on loop iterations within one action window. Accepted
	// actions always consume resources and terminate on their own; this
	// guard exists so no provider can wedge a turn.
	maxActionsPerTurn = 64
)

type Option func(*Engine)

// WithSeed makes dice rolls and steals reproducible.
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.rng = rand.New(rand.NewSource(seed)) }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithDecisionTimeout bounds every provider query.
func WithDecisionTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.decisionTimeout = d
		}
	}
}

// WithAttemptCap bounds rejected proposals per player per turn before the
// engine force-advances past a persistently hallucinating agent.
func WithAttemptCap(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.attemptCap = n
		}
	}
}

// WithTurnCap bounds match length; exceeding it ends in a draw.
func WithTurnCap(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.turnCap = n
		}
	}
}

// Engine owns one match's state, providers and event log exclusively.
type Engine struct {
	matchID   string
	state     *game.State
	providers []agent.Provider
	log       *eventlog.Log

	rng             *rand.Rand
	logger          zerolog.Logger
	decisionTimeout time.Duration
	attemptCap      int
	turnCap         int

	turnsPlayed []int

	// roll produces one 2d6 result; swapped out in tests.
	roll func() int
}

// New creates a match from a fixed setup. Configuration problems surface as
// *game.SetupError and abort before any turn runs.
func New(setup game.Setup, providers []agent.Provider, options ...Option) (*Engine, error) {
	if len(providers) != setup.Players {
		return nil, &game.SetupError{Reason: "provider count does not match player count"}
	}
	state, err := game.NewState(setup)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		matchID:         uuid.NewString(),
		state:           state,
		providers:       providers,
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:          log.Logger,
		decisionTimeout: defaultDecisionTimeout,
		attemptCap:      defaultAttemptCap,
		turnCap:         defaultTurnCap,
		turnsPlayed:     make([]int, setup.Players),
	}
	for _, option := range options {
		option(e)
	}
	e.roll = func() int { return e.rng.Intn(6) + e.rng.Intn(6) + 2 }
	e.log = eventlog.NewLog(e.matchID)
	return e, nil
}

func (e *Engine) MatchID() string    { return e.matchID }
func (e *Engine) State() *game.State { return e.state }
func (e *Engine) Log() *eventlog.Log { return e.log }

// Run executes the match to completion: a win, the turn cap (draw), or
// cancellation of ctx (abort). The returned result is also appended to the
// event log as the closing record.
func (e *Engine) Run(ctx context.Context) eventlog.MatchResult {
	e.logger.Info().Str("match", e.matchID).Int("players", len(e.providers)).Msg("match starting")

	aborted := false
	for !e.state.Terminal && e.state.Turn <= e.turnCap {
		if ctx.Err() != nil {
			aborted = true
			break
		}
		e.playTurn(ctx)
	}

	// The cursor only advances past completed turns; a win mid-turn still
	// counts that turn.
	turns := e.state.Turn - 1
	if e.state.Terminal {
		turns = e.state.Turn
	}
	result := eventlog.MatchResult{
		Winner:  e.state.Winner,
		Draw:    !aborted && e.state.Winner == game.NoPlayer,
		Aborted: aborted,
		Turns:   turns,
	}
	for _, p := range e.state.Players {
		result.Players = append(result.Players, eventlog.PlayerSummary{
			Player:        p.ID,
			Agent:         e.providers[p.ID].Name(),
			VictoryPoints: e.state.VictoryPoints(p.ID),
			TurnsPlayed:   e.turnsPlayed[p.ID],
			Leftover:      p.Hand.Total(),
			Builds:        p.Builds,
			BankTrades:    p.BankTrades,
			PlayerTrades:  p.PlayerTrades,
		})
	}
	e.log.Append(eventlog.Event{Kind: eventlog.KindMatchEnd, Turn: e.state.Turn, Result: &result})

	e.logger.Info().
		Str("match", e.matchID).
		Int("turns", result.Turns).
		Bool("draw", result.Draw).
		Bool("aborted", result.Aborted).
		Int("winner", int(result.Winner)).
		Msg("match over")
	return result
}

// playTurn runs one full turn for the current player: roll, production or
// robber resolution, then the bounded action window.
func (e *Engine) playTurn(ctx context.Context) {
	pid := e.state.CurrentPlayer().ID
	roll := e.roll()

	e.logger.Debug().Str("match", e.matchID).Int("turn", e.state.Turn).Int("player", int(pid)).Int("roll", roll).Msg("turn start")

	if roll == 7 {
		e.resolveRobber(ctx, pid)
	} else {
		e.state.RollProduction(roll)
	}

	e.state.Phase = game.PhaseAction
	rejected := 0
	for iterations := 0; iterations < maxActionsPerTurn && !e.state.Terminal; iterations++ {
		if ctx.Err() != nil {
			return
		}
		legal := e.state.LegalActions()
		act, raw, failure := e.decide(ctx, pid, legal)
		if failure != nil {
			// Timeout or undecodable output: record and treat as a pass.
			e.record(pid, raw, nil, *failure, nil)
			break
		}

		outcome := validator.Validate(e.state, pid, act)
		if !outcome.Accepted() {
			e.record(pid, raw, &act, outcome, nil)
			rejected++
			if rejected >= e.attemptCap {
				e.logger.Debug().Str("match", e.matchID).Int("player", int(pid)).Msg("attempt cap reached, forcing turn end")
				break
			}
			continue
		}

		deltas, err := e.state.Apply(pid, act, e.rng)
		if err != nil {
			// Validate accepted but Apply refused: a bug, not agent data.
			e.logger.Error().Err(err).Str("match", e.matchID).Str("action", act.String()).Msg("apply failed after validation")
			break
		}
		e.record(pid, raw, &act, outcome, deltas)

		if act.Type == game.PassTurn {
			break
		}
		e.state.CheckWinner()
	}

	e.turnsPlayed[pid]++
	if !e.state.Terminal {
		e.state.AdvanceTurn()
	}
}

// resolveRobber handles a rolled 7: discard window for every player over
// the hand limit, then the roller relocates the robber and steals.
func (e *Engine) resolveRobber(ctx context.Context, roller game.PlayerID) {
	e.state.Phase = game.PhaseDiscard
	for _, p := range e.state.Players {
		e.runDiscards(ctx, p.ID)
	}

	e.state.Phase = game.PhaseRobber
	moved := false
	for attempt := 0; attempt < e.attemptCap; attempt++ {
		if ctx.Err() != nil {
			return
		}
		legal := e.state.LegalRobberMoves(roller)
		if len(legal) == 0 {
			break
		}
		act, raw, failure := e.decide(ctx, roller, legal)
		if failure != nil {
			e.record(roller, raw, nil, *failure, nil)
			break
		}
		outcome := validator.Validate(e.state, roller, act)
		if !outcome.Accepted() {
			e.record(roller, raw, &act, outcome, nil)
			continue
		}
		deltas, err := e.state.Apply(roller, act, e.rng)
		if err != nil {
			e.logger.Error().Err(err).Str("match", e.matchID).Str("action", act.String()).Msg("apply failed after validation")
			break
		}
		e.record(roller, raw, &act, outcome, deltas)
		moved = true
		break
	}
	if !moved {
		// Deterministic relocation so the robber rule holds even against a
		// provider that never produces a usable move.
		fallback := e.state.FallbackRobberMove(roller)
		if fallback.Node != e.state.Board.Robber {
			if _, err := e.state.Apply(roller, fallback, e.rng); err != nil {
				e.logger.Error().Err(err).Str("match", e.matchID).Msg("fallback robber move failed")
			}
		}
	}
	e.state.Phase = game.PhaseAction
}

// runDiscards brings one player back to the hand limit, preferring the
// provider's own choices and finishing with the deterministic
// highest-count-first policy when the provider cannot or will not comply.
func (e *Engine) runDiscards(ctx context.Context, pid game.PlayerID) {
	p := e.state.Player(pid)
	for attempt := 0; attempt < e.attemptCap && p.TotalCards() > game.HandLimit; attempt++ {
		if ctx.Err() != nil {
			return
		}
		legal := e.state.LegalDiscards(pid)
		act, raw, failure := e.decide(ctx, pid, legal)
		if failure != nil {
			e.record(pid, raw, nil, *failure, nil)
			break
		}
		outcome := validator.Validate(e.state, pid, act)
		if !outcome.Accepted() {
			e.record(pid, raw, &act, outcome, nil)
			continue
		}
		deltas, err := e.state.Apply(pid, act, e.rng)
		if err != nil {
			e.logger.Error().Err(err).Str("match", e.matchID).Str("action", act.String()).Msg("apply failed after validation")
			break
		}
		e.record(pid, raw, &act, outcome, deltas)
	}

	// Forced discards are engine policy, not agent decisions, so they are
	// applied without decision events.
	for _, act := range e.state.FallbackDiscards(pid) {
		if _, err := e.state.Apply(pid, act, e.rng); err != nil {
			e.logger.Error().Err(err).Str("match", e.matchID).Msg("fallback discard failed")
			return
		}
	}
	if over := p.TotalCards() - game.HandLimit; over > 0 {
		e.logger.Warn().Str("match", e.matchID).Int("player", int(pid)).Int("over", over).Msg("player still over hand limit after discards")
	}
}

// decide queries pid's provider under the decision deadline. The third
// return value is non-nil when the query itself failed (timeout, parse
// error, invented reference) and carries the ready-made classification.
func (e *Engine) decide(ctx context.Context, pid game.PlayerID, legal []game.Action) (game.Action, string, *validator.Outcome) {
	view := e.state.Clone()
	view.Current = int(pid) // the view's cursor marks the acting player

	qctx, cancel := context.WithTimeout(ctx, e.decisionTimeout)
	defer cancel()

	act, err := e.providers[pid].Decide(qctx, view, legal)
	if err == nil {
		return act, act.String(), nil
	}

	var decodeErr *agent.DecodeError
	var outcome validator.Outcome
	switch {
	case errors.As(err, &decodeErr):
		if decodeErr.Kind == agent.DecodeReference {
			outcome = validator.BadReference(decodeErr.Reason)
		} else {
			outcome = validator.Parse(decodeErr.Reason)
		}
	case errors.Is(err, context.DeadlineExceeded):
		outcome = validator.Timeout("decision deadline expired")
	default:
		outcome = validator.Parse(err.Error())
	}
	return game.Action{}, err.Error(), &outcome
}

func (e *Engine) record(pid game.PlayerID, raw string, act *game.Action, outcome validator.Outcome, deltas []game.ResourceDelta) {
	var actCopy *game.Action
	if act != nil {
		c := *act
		actCopy = &c
	}
	e.log.Append(eventlog.Event{
		Kind:    eventlog.KindDecision,
		Turn:    e.state.Turn,
		Player:  pid,
		Agent:   e.providers[pid].Name(),
		Raw:     raw,
		Action:  actCopy,
		Outcome: outcome,
		Deltas:  deltas,
	})
}
