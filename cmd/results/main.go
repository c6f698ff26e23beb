// Package main runs the results pipeline: KS2 and KS4 performance tables to per-school results.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"schooldata/internal/config"
	"schooldata/internal/logger"
	"schooldata/internal/pipeline"
)

func main() {
	configFile := flag.String("config", "", "Path to YAML configuration file (default "+config.DefaultPath+" if present)")
	flag.Parse()

	cfg, err := config.LoadConfig(config.Resolve(*configFile))
	if err != nil {
		logger.NewLogger("info").Error("❌ Failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := pipeline.NewRunner(cfg, log, os.Stdout).RunResults(ctx); err != nil {
		log.Error("❌ Results pipeline failed", "error", err)
		stop()
		os.Exit(1)
	}
}
