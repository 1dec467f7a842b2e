// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Store engine names.
const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Log format names.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config holds the settings a check-in process starts with.
// Command-line flags override these values.
type Config struct {
	DBPath            string `env:"CHECKIN_DB_PATH" envDefault:"checkin.db"`
	Store             string `env:"CHECKIN_STORE" envDefault:"sqlite"`
	LogLevel          string `env:"CHECKIN_LOG_LEVEL" envDefault:"info"`
	LogFormat         string `env:"CHECKIN_LOG_FORMAT" envDefault:"text"`
	VerifyConcurrency int    `env:"CHECKIN_VERIFY_CONCURRENCY" envDefault:"4"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the configuration with every variable unset.
func Default() Config {
	var cfg Config
	// Only tag defaults are applied; an empty environment cannot fail to parse.
	_ = env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}})
	return cfg
}

// Validate checks the enumerated settings.
func (c Config) Validate() error {
	switch c.Store {
	case StoreSQLite, StoreMemory:
	default:
		return fmt.Errorf("invalid store %q: must be %s or %s", c.Store, StoreSQLite, StoreMemory)
	}
	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("invalid log format %q: must be %s or %s", c.LogFormat, LogFormatText, LogFormatJSON)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.VerifyConcurrency < 1 {
		return fmt.Errorf("verify concurrency must be at least 1, got %d", c.VerifyConcurrency)
	}
	if c.Store == StoreSQLite && strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("database path is required for the %s store", StoreSQLite)
	}
	return nil
}

// Level returns LogLevel as a slog level. Accepts debug, info, warn and
// error in any case.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
