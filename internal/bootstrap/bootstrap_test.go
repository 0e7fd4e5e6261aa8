// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package bootstrap_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/edubadge/internal/bootstrap"
	"github.com/taibuivan/edubadge/internal/platform/config"
	"github.com/taibuivan/edubadge/internal/users/profile"
)

func localConfig(t *testing.T) *config.Config {
	return &config.Config{
		Environment:   "development",
		RemoteEnabled: true,
		AllowFallback: true,
		CacheTimeout:  time.Minute,
		RemoteTimeout: time.Second,
		LocalDBPath:   filepath.Join(t.TempDir(), "data", "edubadge.db"),
	}
}

func TestNew_LocalOnly(t *testing.T) {
	cfg := localConfig(t)

	app, err := bootstrap.New(t.Context(), cfg, bootstrap.NewLogger(io.Discard, false))
	require.NoError(t, err)
	defer app.Close()

	assert.Equal(t, profile.BackendLocal, app.Facade.Backend())
	assert.Equal(t, time.Minute, app.Facade.Cache().TTL())

	checks := app.HealthChecks()
	require.Len(t, checks, 1)
	assert.Equal(t, "sqlite", checks[0].Name)
	assert.True(t, checks[0].Critical)
	assert.NoError(t, checks[0].Check(t.Context()))

	require.NoError(t, app.Facade.AddBadge(t.Context(), "Ivan", "Star", "⭐"))
	_, err = os.Stat(cfg.LocalDBPath)
	assert.NoError(t, err)
}

func TestNew_Reopen(t *testing.T) {
	cfg := localConfig(t)
	logger := bootstrap.NewLogger(io.Discard, false)

	app, err := bootstrap.New(t.Context(), cfg, logger)
	require.NoError(t, err)
	require.NoError(t, app.Facade.AddBadge(t.Context(), "Ivan", "Star", "⭐"))
	require.NoError(t, app.Close())

	app, err = bootstrap.New(t.Context(), cfg, logger)
	require.NoError(t, err)
	defer app.Close()

	count, err := app.Facade.BadgeCount(t.Context(), "Ivan")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNew_BadLocalPath(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	cfg := localConfig(t)
	cfg.LocalDBPath = filepath.Join(blocker, "edubadge.db")

	_, err := bootstrap.New(t.Context(), cfg, bootstrap.NewLogger(io.Discard, false))
	assert.ErrorContains(t, err, "open local store")
}

func TestNewLogger(t *testing.T) {
	var buffer bytes.Buffer

	bootstrap.NewLogger(&buffer, false).Debug("hidden")
	assert.Empty(t, buffer.String())

	bootstrap.NewLogger(&buffer, true).Debug("shown")
	assert.Contains(t, buffer.String(), `"msg":"shown"`)
	assert.Contains(t, buffer.String(), `"app":"edubadge"`)
}
