// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the centralized error handling framework for edubadge.

It provides a rich error type that bridges the gap between low-level storage
errors (PostgreSQL, Redis, the device-local SQLite file) and the results the
facade reports to its callers.

Taxonomy:

  - VALIDATION_ERROR: bad input, rejected before any backend is touched.
  - NOT_FOUND: soft outcome, callers usually receive absent/empty instead.
  - TRANSPORT_ERROR: the remote backend is unreachable or the request failed.
  - PERSISTENCE_ERROR: the device-local store could not be written.
  - AUTH_ERROR: a credential was explicitly rejected.

Every error that leaves the profile layer should be an [AppError] so that the
fallback policy and the HTTP surface can classify it without string matching.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// # Error Codes

const (
	CodeNotFound      = "NOT_FOUND"
	CodeValidation    = "VALIDATION_ERROR"
	CodeRateLimited   = "RATE_LIMITED"
	CodeTransport     = "TRANSPORT_ERROR"
	CodePersistence   = "PERSISTENCE_ERROR"
	CodeAuth          = "AUTH_ERROR"
	CodeInternal      = "INTERNAL_ERROR"
	CodeNotConfigured = "NOT_CONFIGURED"
)

// AppError is the canonical error type for edubadge.
//
// It carries an HTTP status code, a machine-readable code, a client-safe
// message, and an optional slice of field-level validation errors.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to clients
// to avoid leaking internal implementation details (e.g., SQL queries).
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "NOT_FOUND", "TRANSPORT_ERROR").
	Code string `json:"code"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"error"`
	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Details holds per-field validation errors for VALIDATION_ERROR responses.
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the JSON field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// # Client Errors (4xx)

// NotFound creates a 404 [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("User") // Returns "User not found"
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// Auth creates a 401 [AppError] for a credential that was explicitly
// rejected for a reason other than "the account does not exist yet".
func Auth(msg string) *AppError {
	return &AppError{
		Code:       CodeAuth,
		Message:    msg,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// ValidationError creates a 400 [AppError] with optional per-field details.
func ValidationError(msg string, details ...FieldError) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// RateLimited creates a 429 [AppError].
func RateLimited(retryAfterSeconds int) *AppError {
	return &AppError{
		Code:       CodeRateLimited,
		Message:    fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds),
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// # Server Errors (5xx)

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
// The cause is stored for logging but is never sent to the client.
func Internal(cause error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "An unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// Transport creates a 503 [AppError] for a remote call that could not be
// completed (network failure, timeout, server-side fault).
func Transport(cause error) *AppError {
	return &AppError{
		Code:       CodeTransport,
		Message:    "Remote backend is unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Cause:      cause,
	}
}

// Persistence creates a 507 [AppError] for a device-local write failure
// (disk full, quota exceeded, read-only file).
func Persistence(cause error) *AppError {
	return &AppError{
		Code:       CodePersistence,
		Message:    "Could not save data on this device",
		HTTPStatus: http.StatusInsufficientStorage,
		Cause:      cause,
	}
}

// NotConfigured creates a 503 [AppError] for an operation that needs a
// backend the process was started without.
func NotConfigured(backend string) *AppError {
	return &AppError{
		Code:       CodeNotConfigured,
		Message:    backend + " backend is not configured",
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// HasCode reports whether err carries an [*AppError] with the given code.
func HasCode(err error, code string) bool {
	ae := As(err)
	return ae != nil && ae.Code == code
}

// Kind returns the code of err for log attributes, or "unknown" when err is
// not an [*AppError].
func Kind(err error) string {
	if ae := As(err); ae != nil {
		return ae.Code
	}
	return "unknown"
}
