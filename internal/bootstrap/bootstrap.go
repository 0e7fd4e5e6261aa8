// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package bootstrap builds the profile stack shared by the HTTP server and the
command-line tool.

Startup Sequence:

 1. Open the device-local SQLite store (required).
 2. When a remote backend is configured: create the PostgreSQL pool, apply the
    schema migrations, and connect Redis for session tracking.
 3. Wire the facade and the migration service.

Only the local store can fail startup. An unreachable remote backend is logged
and left to the facade's fallback policy.
*/
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/taibuivan/edubadge/internal/api"
	"github.com/taibuivan/edubadge/internal/platform/config"
	"github.com/taibuivan/edubadge/internal/platform/constants"
	"github.com/taibuivan/edubadge/internal/platform/migration"
	pgstore "github.com/taibuivan/edubadge/internal/platform/postgres"
	redisstore "github.com/taibuivan/edubadge/internal/platform/redis"
	"github.com/taibuivan/edubadge/internal/platform/sec"
	"github.com/taibuivan/edubadge/internal/platform/sqlite"
	"github.com/taibuivan/edubadge/internal/users/profile"
)

// App is the wired profile stack.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Facade    *profile.Facade
	Migration *profile.MigrationService

	local *sqlite.KV
	pool  *pgxpool.Pool
	redis *goredis.Client
}

// NewLogger creates the process logger: JSON on writer, debug level when
// debug is set, tagged with the application name.
func NewLogger(writer io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String(constants.FieldApp, constants.AppName))
}

/*
New opens every backend named by cfg and wires the facade.

Parameters:
  - context: context.Context (bounds remote connection attempts)
  - cfg: *config.Config
  - log: *slog.Logger

Returns:
  - *App: Call Close when done
  - error: Only local store failures
*/
func New(context context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: log}

	// ── 1. Device-local store ─────────────────────────────────────────────
	local, err := sqlite.Open(cfg.LocalDBPath)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	app.local = local
	log.Info("local_store_opened", slog.String("path", cfg.LocalDBPath))

	// ── 2. Remote store ───────────────────────────────────────────────────
	var remote profile.RemoteStore
	if cfg.HasRemote() {
		remote, err = app.openRemote(context)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
	} else {
		log.Info("remote_backend_not_configured")
	}

	// ── 3. Facade ─────────────────────────────────────────────────────────
	app.Facade = profile.NewFacade(cfg, profile.NewLocalStore(local, log), remote, log,
		profile.WithRemoteTimeout(cfg.RemoteTimeout),
	)
	app.Migration = profile.NewMigrationService(app.Facade, log)

	log.Info("profile_facade_ready",
		slog.String("backend", app.Facade.Backend().String()),
		slog.Bool("fallback", cfg.AllowsFallback()),
		slog.Duration("cache_ttl", cfg.CacheTTL()),
	)

	return app, nil
}

func (app *App) openRemote(context context.Context) (profile.RemoteStore, error) {
	cfg, log := app.Config, app.Logger

	tokens, err := sec.NewTokenService(cfg.SessionSecret, constants.AuthIssuer)
	if err != nil {
		return nil, fmt.Errorf("initialize session tokens: %w", err)
	}

	pool, err := pgstore.NewPool(context, cfg.DatabaseURL, cfg.RemoteTimeout, log)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	app.pool = pool

	if err := pgstore.Ping(context, pool); err != nil {
		log.Warn("remote_backend_unreachable", slog.Any("error", err))
	} else if err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log); err != nil {
		log.Warn("remote_migrations_failed", slog.Any("error", err))
	}

	var sessions profile.SessionRepository
	if cfg.RedisURL != "" {
		client, err := redisstore.NewClient(context, cfg.RedisURL, log)
		if err != nil {
			log.Warn("session_tracking_disabled", slog.Any("error", err))
		} else {
			app.redis = client
			sessions = profile.NewSessionRepository(client)
		}
	}

	return profile.NewRemoteStore(pool, tokens, sessions, cfg.SessionTTL), nil
}

// HealthChecks returns the readiness probes of every opened backend.
func (app *App) HealthChecks() []api.HealthCheck {
	checks := []api.HealthCheck{{Name: "sqlite", Critical: true, Check: app.local.Ping}}

	if app.pool != nil {
		pool := app.pool
		checks = append(checks, api.HealthCheck{Name: "postgres", Check: func(context context.Context) error {
			return pgstore.Ping(context, pool)
		}})
	}
	if app.redis != nil {
		client := app.redis
		checks = append(checks, api.HealthCheck{Name: "redis", Check: func(context context.Context) error {
			return redisstore.Ping(context, client)
		}})
	}
	return checks
}

// Close releases every backend connection.
func (app *App) Close() error {
	var errs []error
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
	}
	if app.pool != nil {
		app.pool.Close()
	}
	if app.local != nil {
		errs = append(errs, app.local.Close())
	}
	return errors.Join(errs...)
}
