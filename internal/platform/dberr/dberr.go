// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
//
// The facade's fallback policy only needs to know whether a remote failure is
// the caller's fault (bad input) or the backend's (transport). Everything that
// is not clearly one of the former is treated as the latter.
package dberr

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/edubadge/internal/platform/apperr"
)

var (
	// ErrNotFound is a standard error returned when a queried row doesn't exist.
	ErrNotFound = apperr.NotFound("Resource")
)

// SQLSTATE classes that describe bad input rather than an unhealthy backend.
const (
	classDataException       = "22"
	classIntegrityConstraint = "23"
)

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the error type.
func Wrap(err error, action string) error {
	if err == nil {
		return nil
	}

	// 1. Already classified
	if apperr.IsAppError(err) {
		return err
	}

	// 2. Not Found mapping
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	// 3. Constraint and data errors are the caller's fault
	var pgError *pgconn.PgError
	if errors.As(err, &pgError) && len(pgError.Code) >= 2 {
		switch pgError.Code[:2] {
		case classDataException, classIntegrityConstraint:
			validation := apperr.ValidationError("Rejected by remote store: " + action)
			validation.Cause = err
			return validation
		}
	}

	// 4. Everything else (timeouts, refused connections, server faults) is transport
	return apperr.Transport(err)
}
