// Package config loads the benchmark run description: how many matches,
// which agents face each other, the economy parameters and the board
// layout. Values come from a YAML file with CATANBENCH_* environment
// variables layered on top.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"catanbench/game"
	"catanbench/metrics"
)

// Duration parses "250ms" style strings from both YAML and the
// environment.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// PlayerConfig names one seat at the table. Metrics aggregate by Name, so
// two seats sharing a name are scored as one agent.
type PlayerConfig struct {
	// Agent selects the provider: "random", "greedy" or "remote".
	Agent string `yaml:"agent"`
	// Name labels the agent in reports; defaults to the agent kind.
	Name string `yaml:"name"`
	// URL is the decision endpoint, remote agents only.
	URL string `yaml:"url"`
}

type Config struct {
	Games       int   `yaml:"games" env:"CATANBENCH_GAMES"`
	Parallelism int   `yaml:"parallelism" env:"CATANBENCH_PARALLELISM"`
	Seed        int64 `yaml:"seed" env:"CATANBENCH_SEED"`

	Players []PlayerConfig `yaml:"players"`

	TargetVP        int      `yaml:"target_vp" env:"CATANBENCH_TARGET_VP"`
	TurnCap         int      `yaml:"turn_cap" env:"CATANBENCH_TURN_CAP"`
	AttemptCap      int      `yaml:"attempt_cap" env:"CATANBENCH_ATTEMPT_CAP"`
	DecisionTimeout Duration `yaml:"decision_timeout" env:"CATANBENCH_DECISION_TIMEOUT"`

	BankRatio    int `yaml:"bank_ratio" env:"CATANBENCH_BANK_RATIO"`
	BankSupply   int `yaml:"bank_supply" env:"CATANBENCH_BANK_SUPPLY"`
	StartingHand int `yaml:"starting_hand" env:"CATANBENCH_STARTING_HAND"`

	ResultsDir string `yaml:"results_dir" env:"CATANBENCH_RESULTS_DIR"`
	EventDB    string `yaml:"event_db" env:"CATANBENCH_EVENT_DB"`

	// IncludeAbortedDecisions keeps decision events from aborted matches in
	// the metric feed. Off by default so a cancelled run cannot skew rates.
	IncludeAbortedDecisions bool `yaml:"include_aborted_decisions" env:"CATANBENCH_INCLUDE_ABORTED"`

	Weights metrics.Weights `yaml:"weights"`

	// Board overrides the built-in layout when present.
	Board *BoardConfig `yaml:"board"`
}

// Default returns the configuration used when a field is absent from both
// the file and the environment.
func Default() Config {
	return Config{
		Games:       10,
		Parallelism: 1,
		Seed:        1,
		Players: []PlayerConfig{
			{Agent: "greedy", Name: "greedy"},
			{Agent: "random", Name: "random"},
		},
		TargetVP:        8,
		TurnCap:         200,
		AttemptCap:      5,
		DecisionTimeout: Duration(5 * time.Second),
		BankRatio:       4,
		BankSupply:      19,
		StartingHand:    2,
		ResultsDir:      "results",
		Weights:         metrics.DefaultWeights(),
	}
}

// Load reads path (optional, "" skips the file), applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config: %w", err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("applying environment: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	if c.Parallelism < 1 {
		c.Parallelism = 1
	}
	for i := range c.Players {
		if c.Players[i].Name == "" {
			c.Players[i].Name = c.Players[i].Agent
		}
	}
	if c.Weights == (metrics.Weights{}) {
		c.Weights = metrics.DefaultWeights()
	}
}

// Validate rejects configurations no match could be created from. Board
// structure itself is checked later by the game setup.
func (c Config) Validate() error {
	if c.Games < 1 {
		return fmt.Errorf("games must be positive, got %d", c.Games)
	}
	if len(c.Players) < 2 {
		return fmt.Errorf("need at least 2 players, got %d", len(c.Players))
	}
	for i, p := range c.Players {
		switch p.Agent {
		case "random", "greedy":
		case "remote":
			if p.URL == "" {
				return fmt.Errorf("player %d: remote agent needs a url", i)
			}
		default:
			return fmt.Errorf("player %d: unknown agent kind %q", i, p.Agent)
		}
	}
	if c.TargetVP < 1 {
		return fmt.Errorf("target_vp must be positive, got %d", c.TargetVP)
	}
	if c.TurnCap < 1 {
		return fmt.Errorf("turn_cap must be positive, got %d", c.TurnCap)
	}
	if c.AttemptCap < 1 {
		return fmt.Errorf("attempt_cap must be positive, got %d", c.AttemptCap)
	}
	if c.DecisionTimeout <= 0 {
		return fmt.Errorf("decision_timeout must be positive, got %s", c.DecisionTimeout.Std())
	}
	if c.Board != nil && len(c.Board.Starts) < len(c.Players) {
		return fmt.Errorf("board has %d starting placements for %d players", len(c.Board.Starts), len(c.Players))
	}
	return nil
}

// Setup assembles the game setup for one match. The built-in board is used
// unless the config carries its own layout.
func (c Config) Setup() (game.Setup, error) {
	board := c.Board
	if board == nil {
		b := DefaultBoard()
		board = &b
	}
	nodes, sites, starts, err := board.build()
	if err != nil {
		return game.Setup{}, err
	}
	return game.Setup{
		Players:      len(c.Players),
		TargetVP:     c.TargetVP,
		BankRatio:    c.BankRatio,
		BankSupply:   c.BankSupply,
		StartingHand: c.StartingHand,
		RobberStart:  game.NodeID(board.Robber),
		Nodes:        nodes,
		Sites:        sites,
		Starts:       starts[:len(c.Players)],
	}, nil
}
