// Package bench runs a configured set of matches, fans their event logs
// into the metric pipeline and persists them when an event database is
// configured.
package bench

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"catanbench/agent"
	"catanbench/config"
	"catanbench/engine"
	"catanbench/eventlog"
	"catanbench/metrics"
)

// Result is the outcome of one full benchmark run.
type Result struct {
	Reports []metrics.AgentReport
	Matches int
	Aborted int
}

// Run plays cfg.Games matches, cfg.Parallelism at a time. Matches scale out
// safely because each engine owns its state exclusively and the collector
// folds events on a single goroutine.
func Run(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*Result, error) {
	setup, err := cfg.Setup()
	if err != nil {
		return nil, err
	}

	var store *eventlog.Store
	if cfg.EventDB != "" {
		store, err = eventlog.Open(cfg.EventDB)
		if err != nil {
			return nil, fmt.Errorf("opening event database: %w", err)
		}
		defer store.Close()
	}

	// Engines are created up-front so setup problems fail the run before
	// any match starts.
	engines := make([]*engine.Engine, cfg.Games)
	for i := range engines {
		seed := cfg.Seed + int64(i)
		providers, err := buildProviders(cfg.Players, seed)
		if err != nil {
			return nil, err
		}
		engines[i], err = engine.New(setup, providers,
			engine.WithSeed(seed),
			engine.WithLogger(logger),
			engine.WithDecisionTimeout(cfg.DecisionTimeout.Std()),
			engine.WithAttemptCap(cfg.AttemptCap),
			engine.WithTurnCap(cfg.TurnCap),
		)
		if err != nil {
			return nil, err
		}
	}

	collector := metrics.NewCollector(1024)
	sem := make(chan struct{}, cfg.Parallelism)
	var wg sync.WaitGroup
	var aborted atomic.Int64

	for i, eng := range engines {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, eng *engine.Engine) {
			defer wg.Done()
			defer func() { <-sem }()

			result := eng.Run(ctx)
			logger.Info().Int("game", i+1).Int("of", cfg.Games).Str("match", eng.MatchID()).Msg("match finished")

			if store != nil {
				store.AppendLog(eng.Log())
			}
			if result.Aborted {
				aborted.Add(1)
				if !cfg.IncludeAbortedDecisions {
					return
				}
			}
			collector.Feed(eng.Log())
		}(i, eng)
	}
	wg.Wait()

	agg := collector.Wait()
	return &Result{
		Reports: agg.Report(cfg.Weights),
		Matches: cfg.Games,
		Aborted: int(aborted.Load()),
	}, nil
}

func buildProviders(players []config.PlayerConfig, seed int64) ([]agent.Provider, error) {
	providers := make([]agent.Provider, len(players))
	for i, p := range players {
		switch p.Agent {
		case "random":
			providers[i] = agent.NewRandom(p.Name, seed+int64(i))
		case "greedy":
			providers[i] = agent.NewGreedy(p.Name)
		case "remote":
			providers[i] = agent.NewRemote(p.Name, p.URL)
		default:
			return nil, fmt.Errorf("unknown agent kind %q", p.Agent)
		}
	}
	return providers, nil
}
