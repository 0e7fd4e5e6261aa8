// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile

import "time"

// # Backend Selection

// Backend names the store a [Facade] routes to. It is fixed at construction.
type Backend int

const (
	// BackendLocal routes every operation to the device-local store.
	BackendLocal Backend = iota
	// BackendRemote routes to the remote store, with optional fallback.
	BackendRemote
)

// String implements [fmt.Stringer].
func (backend Backend) String() string {
	switch backend {
	case BackendRemote:
		return "remote"
	default:
		return "local"
	}
}

// # Session

// Session describes the logged-in user of a [Facade].
//
// UsingFallback is sticky: once set, every badge operation of the session is
// served by the local store until logout.
type Session struct {
	Username      string    `json:"username"`
	UserID        string    `json:"-"`
	Token         string    `json:"-"`
	UsingFallback bool      `json:"usingFallback"`
	StartedAt     time.Time `json:"startedAt"`
}

// LoginResult reports the outcome of [Facade.SetCurrentUser].
type LoginResult struct {
	Success      bool `json:"success"`
	UsedFallback bool `json:"usedFallback"`
}

// Settings is the runtime configuration the facade consults.
type Settings interface {
	// IsEnabled reports whether the remote backend should be used.
	IsEnabled() bool
	// AllowsFallback reports whether a remote failure may be served locally.
	AllowsFallback() bool
	// CacheTTL is the lifetime of read-through cache entries.
	CacheTTL() time.Duration
}
