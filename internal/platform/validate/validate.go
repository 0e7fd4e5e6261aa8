// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package validate checks user-supplied text before it reaches a store.
//
// # Architecture
//
// Input is first normalized with [Clean], then checked with a chainable
// [Validator] that collects every failing field into one VALIDATION_ERROR.
// The facade layer runs it before any backend is touched, so storage code
// only ever sees canonical, valid input.
package validate

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/taibuivan/edubadge/internal/platform/apperr"
)

// ErrInvalidJSON is returned when a request body cannot be decoded.
var ErrInvalidJSON = apperr.ValidationError("Invalid JSON payload")

// # Normalization

// Clean trims surrounding whitespace and folds the value to Unicode NFC so
// that visually identical names ("é" typed as one or two code points) map to
// the same stored key.
func Clean(value string) string {
	return norm.NFC.String(strings.TrimSpace(value))
}

// # Rules

// Validator collects field-level validation errors.
//
// It is not safe for concurrent use; create one per operation.
type Validator struct {
	errs []apperr.FieldError
}

// Required fails if the trimmed value is empty.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.add(field, "This field is required")
	}
	return v
}

// MaxLen fails if the value is longer than max characters (runes, not bytes).
func (v *Validator) MaxLen(field, value string, max int) *Validator {
	if utf8.RuneCountInString(value) > max {
		v.add(field, fmt.Sprintf("Maximum %d characters", max))
	}
	return v
}

// NoControl fails on control characters such as newlines, tabs and NUL.
func (v *Validator) NoControl(field, value string) *Validator {
	if strings.IndexFunc(value, unicode.IsControl) >= 0 {
		v.add(field, "Must not contain control characters")
	}
	return v
}

// Err returns a VALIDATION_ERROR listing every failed field, or nil.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return apperr.ValidationError("Validation failed", v.errs...)
}

// HasErrors reports whether any rule has failed so far.
func (v *Validator) HasErrors() bool {
	return len(v.errs) > 0
}

func (v *Validator) add(field, message string) {
	v.errs = append(v.errs, apperr.FieldError{Field: field, Message: message})
}
