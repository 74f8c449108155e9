package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Writer stores computed scorecards as CSV under a timestamped results
// directory, one run per directory.
type Writer struct {
	baseDir string
}

func NewWriter(resultsDir, name string) (*Writer, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339)
	baseDir := filepath.Join(resultsDir, name, timestamp)
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create results directory: %w", err)
	}
	return &Writer{baseDir: baseDir}, nil
}

func (w *Writer) BaseDir() string { return w.baseDir }

// WriteAgentReports writes one row per agent with every raw counter and
// computed score.
func (w *Writer) WriteAgentReports(reports []AgentReport) error {
	path := filepath.Join(w.baseDir, "agent_reports.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create agent reports file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	header := []string{
		"agent", "games", "wins", "draws", "win_rate",
		"decisions", "index_errors", "action_failures", "timeouts", "parse_errors",
		"hallucination_rate", "penalty_score",
		"builds", "build_rate", "bank_trades", "player_trades", "trade_activity",
		"avg_leftover", "efficiency_score", "avg_match_turns", "overall_score",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write agent reports header: %w", err)
	}

	for _, r := range reports {
		row := []string{
			r.Agent,
			strconv.Itoa(r.GamesPlayed),
			strconv.Itoa(r.Wins),
			strconv.Itoa(r.Draws),
			formatFloat(r.WinRate),
			strconv.Itoa(r.Decisions),
			strconv.Itoa(r.IndexErrors),
			strconv.Itoa(r.ActionFailures),
			strconv.Itoa(r.Timeouts),
			strconv.Itoa(r.ParseErrors),
			formatFloat(r.HallucinationRate),
			formatFloat(r.PenaltyScore),
			strconv.Itoa(r.Builds),
			formatFloat(r.BuildRate),
			strconv.Itoa(r.BankTrades),
			strconv.Itoa(r.PlayerTrades),
			formatFloat(r.TradeActivity),
			formatFloat(r.AvgLeftover),
			formatFloat(r.EfficiencyScore),
			formatFloat(r.AvgMatchTurns),
			formatFloat(r.OverallScore),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write agent report row: %w", err)
		}
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
