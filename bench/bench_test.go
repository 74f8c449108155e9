package bench

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"catanbench/config"
	"catanbench/eventlog"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Games = 2
	cfg.TurnCap = 30
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestRunProducesReports(t *testing.T) {
	cfg := testConfig(t)

	result, err := Run(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, 2, result.Matches)
	require.Zero(t, result.Aborted)

	require.Len(t, result.Reports, 2, "one report per agent name")
	names := map[string]bool{}
	for _, r := range result.Reports {
		names[r.Agent] = true
		require.Equal(t, 2, r.GamesPlayed)
		require.Positive(t, r.Decisions)
	}
	require.True(t, names["greedy"] && names["random"])
}

func TestRunPersistsEventLogs(t *testing.T) {
	cfg := testConfig(t)
	cfg.EventDB = filepath.Join(t.TempDir(), "events.db")

	_, err := Run(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)

	store, err := eventlog.Open(cfg.EventDB)
	require.NoError(t, err)
	defer store.Close()

	matches, err := store.Matches()
	require.NoError(t, err)
	require.Len(t, matches, 2)

	events, err := store.Replay(matches[0])
	require.NoError(t, err)
	require.NotEmpty(t, events)
	require.Equal(t, eventlog.KindMatchEnd, events[len(events)-1].Kind)
}

func TestRunParallelMatchesSameAsSerial(t *testing.T) {
	cfg := testConfig(t)
	cfg.Games = 4

	serial, err := Run(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)

	cfg.Parallelism = 4
	parallel, err := Run(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)

	require.Equal(t, serial.Reports, parallel.Reports)
}

func TestRunAbortedMatchesExcluded(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := Run(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, 2, result.Aborted)
	for _, r := range result.Reports {
		require.Zero(t, r.GamesPlayed)
	}
}
