// Package main runs the school data pipelines.
//
// With no -only flag all four pipelines run concurrently; a failure in one does not stop the others,
// and the process exits non-zero if any failed.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"schooldata/internal/config"
	"schooldata/internal/logger"
	"schooldata/internal/pipeline"
)

func main() {
	configFile := flag.String("config", "", "Path to YAML configuration file (default "+config.DefaultPath+" if present)")
	only := flag.String("only", "", "Comma-separated pipelines to run in order (schools,results,admissions,prices)")
	level := flag.String("log-level", "", "Override logging.level (debug, info, warn, error)")
	saveTo := flag.String("write-config", "", "Write the effective configuration to this path and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(config.Resolve(*configFile))
	if err != nil {
		logger.NewLogger("info").Error("❌ Failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.Logging.Level)
	overrideLevel(cfg, log, *level)

	if err := cfg.Validate(); err != nil {
		log.Error("❌ Invalid configuration", "error", err)
		os.Exit(1)
	}

	if *saveTo != "" {
		if err := writeConfig(cfg, *saveTo); err != nil {
			log.Error("❌ Failed to write config", "error", err)
			os.Exit(1)
		}

		log.Info("✅ Config written", "path", *saveTo)
		return
	}

	log.Info("🚀 Starting pipelines", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := pipeline.NewRunner(cfg, log, os.Stdout)
	start := time.Now()

	if *only == "" {
		err = runner.RunAll(ctx)
	} else {
		var errs []error

		for name := range strings.SplitSeq(*only, ",") {
			name = strings.TrimSpace(name)
			if runErr := runner.Run(ctx, name); runErr != nil {
				log.Error("Pipeline failed", "pipeline", name, "error", runErr)
				errs = append(errs, runErr)
			}
		}

		err = errors.Join(errs...)
	}

	if err != nil {
		log.Error("❌ Pipelines finished with errors", "duration", time.Since(start), "error", err)
		stop()
		os.Exit(1)
	}

	log.Info("✨ Pipelines complete", "duration", time.Since(start))
}
