package main

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// envConfig holds the environment-variable configuration for
// pupbasectl, loaded with github.com/caarlos0/env. Flags on individual
// subcommands take precedence when both are set.
type envConfig struct {
	DBPath   string `env:"PUPBASE_DB_PATH" envDefault:"pupbase.db"`
	LogLevel string `env:"PUPBASE_LOG_LEVEL" envDefault:"info"`
}

func loadEnvConfig() (envConfig, error) {
	var cfg envConfig
	if err := env.Parse(&cfg); err != nil {
		return envConfig{}, fmt.Errorf("pupbasectl: failed to load environment config: %w", err)
	}
	return cfg, nil
}
