// Package main loads the processed datasets into PostgreSQL.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"schooldata/internal/config"
	"schooldata/internal/logger"
	"schooldata/internal/store"
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

	pub, err := store.Open(ctx, cfg.Store.DatabaseURL, cfg.Store.BatchSize, log)
	if err != nil {
		log.Error("❌ Failed to connect to database", "error", err)
		stop()
		os.Exit(1)
	}

	err = pub.PublishAll(ctx, cfg)

	if closeErr := pub.Close(); closeErr != nil {
		log.Warn("Failed to close database", "error", closeErr)
	}

	if err != nil {
		log.Error("❌ Publish failed", "error", err)
		stop()
		os.Exit(1)
	}

	log.Info("✅ Published processed datasets")
}
