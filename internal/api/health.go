// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/taibuivan/edubadge/internal/platform/constants"
	"github.com/taibuivan/edubadge/internal/platform/respond"
)

const checkTimeout = 3 * time.Second

// HealthCheck is one dependency probed by the /ready endpoint.
type HealthCheck struct {
	// Name identifies the dependency in the response ("sqlite", "postgres", "redis").
	Name string

	// Critical marks a dependency without which no request can be served.
	// The remote backends are not critical: the facade falls back to the
	// device-local store.
	Critical bool

	// Check pings the dependency.
	Check func(context.Context) error
}

type checkResult struct {
	Name     string `json:"name"`
	IsOK     bool   `json:"ok"`
	Critical bool   `json:"critical"`
	Error    string `json:"error,omitempty"`
}

type healthHandler struct {
	checks []HealthCheck
	logger *slog.Logger
}

// NewHealthHandlers creates the /health and /ready http.HandlerFuncs.
func NewHealthHandlers(checks []HealthCheck, logger *slog.Logger) (liveness, readiness http.HandlerFunc) {
	handler := &healthHandler{checks: checks, logger: logger}
	return handler.liveness, handler.readiness
}

// liveness handles GET /health (Liveness probe).
func (handler *healthHandler) liveness(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, map[string]string{
		constants.FieldStatus:  "ok",
		constants.FieldApp:     constants.AppName,
		constants.FieldVersion: constants.AppVersion,
	})
}

/*
readiness handles GET /ready (Readiness probe).

Response:
  - 200: "ready", or "degraded" when only non-critical dependencies fail
  - 503: "unavailable" when a critical dependency fails
*/
func (handler *healthHandler) readiness(writer http.ResponseWriter, request *http.Request) {
	context, cancel := context.WithTimeout(request.Context(), checkTimeout)
	defer cancel()

	results := make([]checkResult, 0, len(handler.checks))
	status, httpStatus := "ready", http.StatusOK

	for _, check := range handler.checks {
		result := checkResult{Name: check.Name, IsOK: true, Critical: check.Critical}

		if err := check.Check(context); err != nil {
			result.IsOK = false
			result.Error = err.Error()
			handler.logger.WarnContext(context, "readiness_check_failed",
				slog.String("dependency", check.Name),
				slog.Bool("critical", check.Critical),
				slog.Any("error", err),
			)

			if check.Critical {
				status, httpStatus = "unavailable", http.StatusServiceUnavailable
			} else if httpStatus == http.StatusOK {
				status = "degraded"
			}
		}
		results = append(results, result)
	}

	respond.JSON(writer, httpStatus, respond.SuccessEnvelope{Data: map[string]any{
		constants.FieldStatus: status,
		constants.FieldChecks: results,
	}})
}
