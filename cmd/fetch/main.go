// Package main downloads the configured raw source files.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"schooldata/internal/config"
	"schooldata/internal/fetch"
	"schooldata/internal/formatter"
	"schooldata/internal/logger"
)

func main() {
	configFile := flag.String("config", "", "Path to YAML configuration file (default "+config.DefaultPath+" if present)")
	force := flag.Bool("force", false, "Download even when the target file already exists")
	level := flag.String("log-level", "", "Override logging.level (debug, info, warn, error)")
	flag.Parse()

	cfg, err := config.LoadConfig(config.Resolve(*configFile))
	if err != nil {
		logger.NewLogger("info").Error("❌ Failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.Logging.Level)
	if *level != "" {
		log.SetLevel(*level)
	}

	if *force {
		cfg.Fetch.SkipExisting = false
	}

	sources := cfg.Fetch.EnabledSources()
	if len(sources) == 0 {
		log.Warn("⚠️  No enabled sources in config; nothing to fetch")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := fetch.NewDownloader(cfg.Fetch, log).FetchAll(ctx, cfg)

	report := formatter.NewTable("## Fetch", "Source", "Path", "Bytes", "Attempts", "Status")
	for _, res := range results {
		status := "downloaded"
		if res.Skipped {
			status = "skipped (exists)"
		}

		report.Add(res.Name, res.Path, res.Bytes, res.Attempts, status)
	}

	if printErr := report.Print(os.Stdout); printErr != nil {
		log.Warn("Failed to print report", "error", printErr)
	}

	if err != nil {
		log.Error("❌ Some downloads failed", "error", err)
		stop()
		os.Exit(1)
	}
}
