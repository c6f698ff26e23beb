package main

import (
	"fmt"

	"schooldata/internal/config"
	"schooldata/internal/logger"
)

// overrideLevel applies a -log-level value to the running logger and to the
// config, so a config written with -write-config records it.
func overrideLevel(cfg *config.Config, log *logger.Logger, level string) {
	if level == "" {
		return
	}

	log.SetLevel(level)
	cfg.Logging.Level = level
}

// writeConfig saves the effective configuration, env overrides included.
// The database URL is left out so the file holds no credentials.
func writeConfig(cfg *config.Config, path string) error {
	out := *cfg
	out.Store.DatabaseURL = ""

	if err := out.SaveConfig(path); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}

	return nil
}
