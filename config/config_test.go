package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"catanbench/game"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	cfg.normalize()
	require.NoError(t, cfg.Validate())
}

func TestDefaultBoardBuildsForAllSeatCounts(t *testing.T) {
	for players := 2; players <= 4; players++ {
		cfg := Default()
		cfg.Players = cfg.Players[:0]
		for i := 0; i < players; i++ {
			cfg.Players = append(cfg.Players, PlayerConfig{Agent: "random", Name: "random"})
		}

		setup, err := cfg.Setup()
		require.NoError(t, err)
		require.Equal(t, players, setup.Players)

		_, err = game.NewState(setup)
		require.NoError(t, err, "built-in board rejected for %d players", players)
	}
}

func TestLoadAppliesFileAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
games: 3
decision_timeout: 250ms
players:
  - agent: remote
    name: llm
    url: http://localhost:9999/decide
  - agent: greedy
weights:
  index_error: 8
  action_failure: 4
  leftover: 0.25
  trade_activity_cap: 10
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 3, cfg.Games)
	require.Equal(t, 250*time.Millisecond, cfg.DecisionTimeout.Std())
	require.Equal(t, 8.0, cfg.Weights.IndexError)
	require.Equal(t, "llm", cfg.Players[0].Name)
	require.Equal(t, "greedy", cfg.Players[1].Name, "name defaults to the agent kind")

	// File left these alone, defaults hold.
	require.Equal(t, 4, cfg.BankRatio)
	require.Equal(t, 200, cfg.TurnCap)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("CATANBENCH_GAMES", "7")
	t.Setenv("CATANBENCH_TURN_CAP", "33")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 7, cfg.Games)
	require.Equal(t, 33, cfg.TurnCap)
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no games", func(c *Config) { c.Games = 0 }},
		{"one player", func(c *Config) { c.Players = c.Players[:1] }},
		{"unknown agent", func(c *Config) { c.Players[0].Agent = "psychic" }},
		{"remote without url", func(c *Config) { c.Players[0] = PlayerConfig{Agent: "remote"} }},
		{"zero timeout", func(c *Config) { c.DecisionTimeout = 0 }},
		{"board too small for seats", func(c *Config) {
			b := DefaultBoard()
			b.Starts = b.Starts[:1]
			c.Board = &b
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestBoardBuildRejectsUnknownNames(t *testing.T) {
	b := DefaultBoard()
	b.Nodes[0].Resource = "gold"
	cfg := Default()
	cfg.Board = &b
	_, err := cfg.Setup()
	require.Error(t, err)

	b = DefaultBoard()
	b.Sites[0].Slot = "hexagon"
	cfg.Board = &b
	_, err = cfg.Setup()
	require.Error(t, err)
}
