// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package profile implements the dual-backend persistence layer for user
profiles and the achievement badges they earn.

# Architecture

  - Facade: the single entry point. Routes each call to the remote record
    store (behind a read-through cache) or to the device-local store, and
    falls back to the latter when the former fails.
  - RemoteStore: PostgreSQL-backed record service shared by every device.
  - LocalStore: one JSON document in the device-local key-value file.
  - Cache: TTL-bounded user id and badge list entries, invalidated on write.
  - MigrationService: copies device-local badges to the remote store and
    verifies the copy by comparing counts.

Badges are append-only: nothing in this package updates or deletes one.
*/
package profile

import (
	"time"

	"github.com/taibuivan/edubadge/internal/platform/validate"
)

// # Domain Entities

// Badge is an achievement earned by a user. Immutable once created.
type Badge struct {
	Name     string    `json:"name"`
	Emoji    string    `json:"emoji"`
	EarnedAt time.Time `json:"earnedAt"`
}

// UserRecord is a user profile with its badges in earn order.
//
// Username is the map key in the device-local layout, so it is not repeated
// inside the serialized value.
type UserRecord struct {
	Username  string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	Badges    []Badge   `json:"badges"`
}

// # Constraints

const (
	// DefaultEmoji is used when a badge is awarded without one.
	DefaultEmoji = "🏅"

	// MaxUsernameLength is the maximum username length in characters.
	MaxUsernameLength = 50

	// MaxBadgeNameLength is the maximum badge name length in characters.
	MaxBadgeNameLength = 200

	// MaxEmojiLength bounds the emoji glyph. Flag and family sequences span
	// several code points, so this is larger than one.
	MaxEmojiLength = 16
)

// # Field Identifiers

const (
	FieldUsername   = "username"
	FieldCredential = "credential"
	FieldName       = "name"
	FieldEmoji      = "emoji"
)

// # Validation

// NormalizeUsername trims and NFC-folds a username and checks it against the
// username rules. The returned value is the canonical storage key.
func NormalizeUsername(raw string) (string, error) {
	username := validate.Clean(raw)

	err := (&validate.Validator{}).
		Required(FieldUsername, username).
		MaxLen(FieldUsername, username, MaxUsernameLength).
		NoControl(FieldUsername, username).
		Err()
	if err != nil {
		return "", err
	}
	return username, nil
}

// NormalizeBadge cleans a badge name and emoji. An empty emoji becomes
// [DefaultEmoji].
func NormalizeBadge(rawName, rawEmoji string) (name, emoji string, err error) {
	name = validate.Clean(rawName)
	emoji = validate.Clean(rawEmoji)
	if emoji == "" {
		emoji = DefaultEmoji
	}

	err = (&validate.Validator{}).
		Required(FieldName, name).
		MaxLen(FieldName, name, MaxBadgeNameLength).
		NoControl(FieldName, name).
		MaxLen(FieldEmoji, emoji, MaxEmojiLength).
		NoControl(FieldEmoji, emoji).
		Err()
	if err != nil {
		return "", "", err
	}
	return name, emoji, nil
}

func cloneBadges(badges []Badge) []Badge {
	out := make([]Badge, len(badges))
	copy(out, badges)
	return out
}
