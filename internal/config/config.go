// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Errors returned by Load match ErrLoadConfig or ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the operational HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Store selects the backend: memory or postgres.
	Store string `koanf:"store"`

	// PostgresDSN is the connection string used when Store is postgres.
	PostgresDSN string `koanf:"postgres_dsn"`

	// MigrateOnStart applies pending schema migrations before serving.
	MigrateOnStart bool `koanf:"migrate_on_start"`

	// UpdateIntervalMS is the period of the background rank update loop.
	UpdateIntervalMS int `koanf:"update_interval_ms"`

	// UpdateTimeoutMS bounds a single rank update run.
	UpdateTimeoutMS int `koanf:"update_timeout_ms"`

	// RankingMode is competition (1,2,2,4) or dense (1,2,2,3).
	RankingMode string `koanf:"ranking_mode"`
}

// New creates a Config holding the defaults. Context is accepted first to
// satisfy the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		Store:            StoreMemory,
		MigrateOnStart:   true,
		UpdateIntervalMS: 30_000,
		UpdateTimeoutMS:  10_000,
		RankingMode:      "competition",
	}
}

// UpdateInterval returns UpdateIntervalMS as a duration.
func (c *Config) UpdateInterval() time.Duration {
	return time.Duration(c.UpdateIntervalMS) * time.Millisecond
}

// UpdateTimeout returns UpdateTimeoutMS as a duration.
func (c *Config) UpdateTimeout() time.Duration {
	return time.Duration(c.UpdateTimeoutMS) * time.Millisecond
}

// Validate reports the first invalid setting, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Store != StoreMemory && c.Store != StorePostgres:
		return fmt.Errorf("%w: store must be %q or %q, got %q", ErrInvalidConfig, StoreMemory, StorePostgres, c.Store)
	case c.Store == StorePostgres && c.PostgresDSN == "":
		return fmt.Errorf("%w: postgres_dsn is required for the postgres store", ErrInvalidConfig)
	case c.UpdateIntervalMS <= 0:
		return fmt.Errorf("%w: update_interval_ms must be positive", ErrInvalidConfig)
	case c.UpdateTimeoutMS <= 0:
		return fmt.Errorf("%w: update_timeout_ms must be positive", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	switch strings.ToLower(c.RankingMode) {
	case "", "competition", "dense":
	default:
		return fmt.Errorf("%w: ranking_mode must be competition or dense, got %q", ErrInvalidConfig, c.RankingMode)
	}
	return nil
}
