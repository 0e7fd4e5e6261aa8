// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/edubadge/internal/api"
	"github.com/taibuivan/edubadge/internal/platform/config"
	"github.com/taibuivan/edubadge/internal/platform/constants"
	"github.com/taibuivan/edubadge/internal/platform/sqlite"
	"github.com/taibuivan/edubadge/internal/users/profile"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func healthy(context.Context) error { return nil }

func failing(context.Context) error { return errors.New("connection refused") }

type readiness struct {
	Data struct {
		Status string `json:"status"`
		Checks []struct {
			Name  string `json:"name"`
			OK    bool   `json:"ok"`
			Error string `json:"error"`
		} `json:"checks"`
	} `json:"data"`
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name       string
		checks     []api.HealthCheck
		wantStatus int
		wantState  string
	}{
		{
			name: "all_healthy",
			checks: []api.HealthCheck{
				{Name: "sqlite", Critical: true, Check: healthy},
				{Name: "postgres", Check: healthy},
			},
			wantStatus: http.StatusOK,
			wantState:  "ready",
		},
		{
			name: "remote_down",
			checks: []api.HealthCheck{
				{Name: "sqlite", Critical: true, Check: healthy},
				{Name: "postgres", Check: failing},
			},
			wantStatus: http.StatusOK,
			wantState:  "degraded",
		},
		{
			name: "local_down",
			checks: []api.HealthCheck{
				{Name: "sqlite", Critical: true, Check: failing},
				{Name: "postgres", Check: failing},
			},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "unavailable",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, ready := api.NewHealthHandlers(tc.checks, discardLogger())

			recorder := httptest.NewRecorder()
			ready(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tc.wantStatus, recorder.Code)
			var body readiness
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
			assert.Equal(t, tc.wantState, body.Data.Status)
			assert.Len(t, body.Data.Checks, len(tc.checks))
		})
	}
}

func TestLiveness(t *testing.T) {
	live, _ := api.NewHealthHandlers(nil, discardLogger())

	recorder := httptest.NewRecorder()
	live(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"status":"ok"`)
	assert.Contains(t, recorder.Body.String(), `"version":"`+constants.AppVersion+`"`)
}

func newLocalServer(t *testing.T) *api.Server {
	t.Helper()

	kv, err := sqlite.Open(filepath.Join(t.TempDir(), "edubadge.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	cfg := &config.Config{ServerPort: "0", Environment: "production", ExtraOrigins: "https://app.example.com"}
	facade := profile.NewFacade(cfg, profile.NewLocalStore(kv, discardLogger()), nil, discardLogger())
	handler := profile.NewHandler(facade, profile.NewMigrationService(facade, discardLogger()))

	live, ready := api.NewHealthHandlers([]api.HealthCheck{{Name: "sqlite", Critical: true, Check: kv.Ping}}, discardLogger())
	return api.NewServer(t.Context(), cfg, discardLogger(), api.Handlers{Liveness: live, Readiness: ready, Profile: handler})
}

func TestServer_Routes(t *testing.T) {
	router := newLocalServer(t).Handler()

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/api/v1/users/Ivan/badges", strings.NewReader(`{"name":"Star","emoji":"⭐"}`))
	router.ServeHTTP(recorder, request)
	require.Equal(t, http.StatusCreated, recorder.Code)
	assert.NotEmpty(t, recorder.Header().Get("X-Request-ID"))

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/users/Ivan/badges/count", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"count":1`)

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil))
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestServer_CORS(t *testing.T) {
	router := newLocalServer(t).Handler()

	tests := []struct {
		name    string
		origin  string
		allowed bool
	}{
		{"listed_origin", "https://app.example.com", true},
		{"unlisted_origin", "https://evil.example.com", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodOptions, "/api/v1/session", nil)
			request.Header.Set("Origin", tc.origin)

			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, request)

			assert.Equal(t, http.StatusNoContent, recorder.Code)
			if tc.allowed {
				assert.Equal(t, tc.origin, recorder.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, recorder.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}
