package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"catanbench/bench"
	"catanbench/config"
	"catanbench/metrics"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML run configuration")
	name := flag.String("name", "benchmark", "run name, used for the results directory")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
	log.Logger = logger

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := bench.Run(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("benchmark failed")
	}

	writer, err := metrics.NewWriter(cfg.ResultsDir, *name)
	if err != nil {
		logger.Fatal().Err(err).Msg("creating results directory")
	}
	if err := writer.WriteAgentReports(result.Reports); err != nil {
		logger.Fatal().Err(err).Msg("writing agent reports")
	}

	for _, report := range result.Reports {
		logger.Info().
			Str("agent", report.Agent).
			Float64("win_rate", report.WinRate).
			Float64("hallucination_rate", report.HallucinationRate).
			Float64("overall", report.OverallScore).
			Msg("agent scored")
	}
	logger.Info().
		Int("matches", result.Matches).
		Int("aborted", result.Aborted).
		Str("results", writer.BaseDir()).
		Msg("benchmark complete")
}
