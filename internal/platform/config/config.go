// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, the profile facade) via constructors.
  - Zero Hidden State: No global variables are used to store config.

The remote backend is optional. Leaving DATABASE_URL empty (or setting
REMOTE_ENABLED=false) runs the whole application on the device-local store.
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the edubadge process.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Remote record service (PostgreSQL). Empty means "not configured".
	RemoteEnabled bool   `env:"REMOTE_ENABLED" envDefault:"true"`
	DatabaseURL   string `env:"DATABASE_URL"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Remote session tracking (Redis). Optional.
	RedisURL string `env:"REDIS_URL"`

	// Remote session tokens
	SessionSecret string        `env:"SESSION_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	// Persistence policy
	AllowFallback bool          `env:"ALLOW_FALLBACK" envDefault:"true"`
	CacheTimeout  time.Duration `env:"CACHE_TTL"      envDefault:"5m"`
	RemoteTimeout time.Duration `env:"REMOTE_TIMEOUT" envDefault:"5s"`

	// Device-local store (embedded SQLite file)
	LocalDBPath string `env:"LOCAL_DB_PATH" envDefault:"./data/edubadge.db"`

	// Cross-Origin Resource Sharing, comma separated
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.CacheTimeout <= 0 {
		return fmt.Errorf("config: CACHE_TTL must be positive, got %s", c.CacheTimeout)
	}
	if c.RemoteTimeout <= 0 {
		return fmt.Errorf("config: REMOTE_TIMEOUT must be positive, got %s", c.RemoteTimeout)
	}
	if strings.TrimSpace(c.LocalDBPath) == "" {
		return fmt.Errorf("config: LOCAL_DB_PATH is required")
	}
	if c.HasRemote() && c.SessionSecret == "" {
		return fmt.Errorf("config: SESSION_SECRET is required when DATABASE_URL is set")
	}
	return nil
}

// # Persistence Policy

// HasRemote reports whether a remote record service has been configured at all.
func (c *Config) HasRemote() bool {
	return strings.TrimSpace(c.DatabaseURL) != ""
}

// IsEnabled reports whether the remote backend should be used.
func (c *Config) IsEnabled() bool {
	return c.RemoteEnabled && c.HasRemote()
}

// AllowsFallback reports whether a failing remote call may be retried
// against the device-local store.
func (c *Config) AllowsFallback() bool {
	return c.AllowFallback
}

// CacheTTL is the maximum age of a read-through cache entry.
func (c *Config) CacheTTL() time.Duration {
	return c.CacheTimeout
}

// # Environment

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigins returns the CORS allow-list parsed from EXTRA_ORIGINS.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.ExtraOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
