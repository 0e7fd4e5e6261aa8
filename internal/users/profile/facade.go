// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/taibuivan/edubadge/internal/platform/apperr"
)

// DefaultRemoteTimeout bounds a stalled remote call when no timeout is configured.
const DefaultRemoteTimeout = 5 * time.Second

// # Storage Facade

// Facade is the single entry point for profile and badge persistence.
//
// The backend is chosen once at construction. With [BackendRemote] every call
// goes to the remote store through the cache, and a remote failure is served
// by the local store when the settings allow it. The facade is safe for
// concurrent use.
type Facade struct {
	backend       Backend
	settings      Settings
	local         *LocalStore
	remote        RemoteStore
	cache         *Cache
	logger        *slog.Logger
	remoteTimeout time.Duration
	now           func() time.Time

	reads singleflight.Group

	mu      sync.RWMutex
	session *Session
}

// Option customizes a [Facade].
type Option func(*Facade)

// WithRemoteTimeout bounds every remote call made by the facade.
func WithRemoteTimeout(timeout time.Duration) Option {
	return func(facade *Facade) {
		if timeout > 0 {
			facade.remoteTimeout = timeout
		}
	}
}

// WithClock replaces the wall clock used by the cache and session.
func WithClock(now func() time.Time) Option {
	return func(facade *Facade) {
		if now != nil {
			facade.now = now
		}
	}
}

/*
NewFacade builds the facade.

Parameters:
  - settings: Settings (remote toggle, fallback permission, cache TTL)
  - local: *LocalStore (always required)
  - remote: RemoteStore (nil when no remote backend is configured)
  - logger: *slog.Logger
  - options: ...Option

Returns:
  - *Facade
*/
func NewFacade(settings Settings, local *LocalStore, remote RemoteStore, logger *slog.Logger, options ...Option) *Facade {
	if logger == nil {
		logger = slog.Default()
	}

	facade := &Facade{
		backend:       BackendLocal,
		settings:      settings,
		local:         local,
		remote:        remote,
		logger:        logger,
		remoteTimeout: DefaultRemoteTimeout,
		now:           time.Now,
	}
	for _, option := range options {
		option(facade)
	}

	if remote != nil && settings.IsEnabled() {
		facade.backend = BackendRemote
	}
	facade.cache = NewCache(settings.CacheTTL(), facade.now)

	return facade
}

// Backend returns the backend chosen at construction.
func (facade *Facade) Backend() Backend { return facade.backend }

// Cache exposes the read-through cache.
func (facade *Facade) Cache() *Cache { return facade.cache }

// # Session

// CurrentUsername returns the logged-in username. It never calls a backend.
func (facade *Facade) CurrentUsername() (string, bool) {
	facade.mu.RLock()
	defer facade.mu.RUnlock()

	if facade.session == nil {
		return "", false
	}
	return facade.session.Username, true
}

// Session returns a copy of the current session.
func (facade *Facade) Session() (Session, bool) {
	facade.mu.RLock()
	defer facade.mu.RUnlock()

	if facade.session == nil {
		return Session{}, false
	}
	return *facade.session, true
}

/*
SetCurrentUser logs a user in.

Description: The username is trimmed and validated before any backend is
touched. With the remote backend, a credential selects the sign-in-or-register
path and no credential the anonymous resolve-or-create path. When the remote
call fails and fallback is allowed, the session continues on the local store
and UsedFallback is reported. A rejected credential never falls back.

Parameters:
  - context: context.Context
  - rawUsername: string
  - credential: string (optional)

Returns:
  - LoginResult
  - error: VALIDATION_ERROR, AUTH_ERROR, TRANSPORT_ERROR (no fallback) or PERSISTENCE_ERROR
*/
func (facade *Facade) SetCurrentUser(context context.Context, rawUsername, credential string) (LoginResult, error) {
	username, err := NormalizeUsername(rawUsername)
	if err != nil {
		return LoginResult{}, err
	}

	logger := facade.logger.With(slog.String("op", "set_current_user"), slog.String("username", username))

	if facade.backend == BackendRemote {
		remoteSession, err := facade.remoteLogin(context, username, credential)
		if err == nil {
			facade.cache.PutUserID(username, remoteSession.UserID)
			facade.startSession(context, Session{
				Username: username,
				UserID:   remoteSession.UserID,
				Token:    remoteSession.Token,
			})
			logger.InfoContext(context, "profile_login", slog.String("backend", BackendRemote.String()))
			return LoginResult{Success: true}, nil
		}

		if callerGone(context, err) || !facade.canFallback(err) {
			logger.WarnContext(context, "profile_login_failed", slog.String("kind", apperr.Kind(err)), slog.Any("error", err))
			return LoginResult{}, err
		}
		logger.WarnContext(context, "profile_remote_fallback", slog.String("kind", apperr.Kind(err)), slog.Any("error", err))
	}

	if err := facade.local.Create(context, username); err != nil {
		logger.ErrorContext(context, "profile_login_failed", slog.String("kind", apperr.Kind(err)), slog.Any("error", err))
		return LoginResult{}, err
	}

	facade.startSession(context, Session{Username: username, UsingFallback: true})
	logger.InfoContext(context, "profile_login", slog.String("backend", BackendLocal.String()))

	return LoginResult{Success: true, UsedFallback: true}, nil
}

func (facade *Facade) remoteLogin(context context.Context, username, credential string) (RemoteSession, error) {
	context, cancel := facade.remoteContext(context)
	defer cancel()

	if credential == "" {
		userID, err := facade.remote.ResolveOrCreateUser(context, username)
		if err != nil {
			return RemoteSession{}, remoteError(err)
		}
		return RemoteSession{UserID: userID}, nil
	}

	remoteSession, err := facade.remote.SignInOrRegister(context, username, credential)
	if err != nil {
		return RemoteSession{}, remoteError(err)
	}
	return remoteSession, nil
}

// startSession installs the new session. A replaced remote session is ended.
func (facade *Facade) startSession(context context.Context, session Session) {
	session.StartedAt = facade.now().UTC()

	facade.mu.Lock()
	previous := facade.session
	facade.session = &session
	facade.mu.Unlock()

	facade.local.SetActiveUser(session.Username)

	if previous != nil && previous.Token != "" && previous.Token != session.Token {
		facade.endRemoteSession(context, previous.Token)
	}
}

/*
Logout ends the session and empties the cache.

Description: The session and cache are cleared unconditionally. Ending the
remote session is best effort; a failure is logged and otherwise ignored.

Parameters:
  - context: context.Context
*/
func (facade *Facade) Logout(context context.Context) {
	facade.mu.Lock()
	previous := facade.session
	facade.session = nil
	facade.mu.Unlock()

	facade.local.ClearActiveUser()
	facade.cache.Clear()

	if previous == nil {
		return
	}
	if previous.Token != "" {
		facade.endRemoteSession(context, previous.Token)
	}
	facade.logger.InfoContext(context, "profile_logout", slog.String("username", previous.Username))
}

func (facade *Facade) endRemoteSession(context context.Context, token string) {
	if facade.remote == nil {
		return
	}

	context, cancel := facade.remoteContext(context)
	defer cancel()

	if err := facade.remote.SignOut(context, token); err != nil {
		facade.logger.WarnContext(context, "profile_sign_out_failed", slog.String("kind", apperr.Kind(err)), slog.Any("error", err))
	}
}

// # Badges

/*
AddBadge awards a badge to a user.

Description: An empty emoji selects [DefaultEmoji]. On success via either
store the cached badge list of the user is discarded.

Parameters:
  - context: context.Context
  - rawUsername: string
  - rawName: string
  - rawEmoji: string (optional)

Returns:
  - error: nil on success
*/
func (facade *Facade) AddBadge(context context.Context, rawUsername, rawName, rawEmoji string) error {
	username, err := NormalizeUsername(rawUsername)
	if err != nil {
		return err
	}
	name, emoji, err := NormalizeBadge(rawName, rawEmoji)
	if err != nil {
		return err
	}

	if facade.useRemote() {
		err := facade.insertRemote(context, username, Badge{Name: name, Emoji: emoji})
		if err == nil {
			facade.cache.InvalidateBadges(username)
			return nil
		}
		if callerGone(context, err) || !facade.canFallback(err) {
			facade.logger.WarnContext(context, "profile_add_badge_failed",
				slog.String("username", username), slog.String("kind", apperr.Kind(err)), slog.Any("error", err))
			return err
		}
		facade.switchToFallback(context, "add_badge", username, err)
	}

	if err := facade.local.AppendBadge(context, username, name, emoji); err != nil {
		facade.logger.ErrorContext(context, "profile_add_badge_failed",
			slog.String("username", username), slog.String("kind", apperr.Kind(err)), slog.Any("error", err))
		return err
	}
	facade.cache.InvalidateBadges(username)

	return nil
}

func (facade *Facade) insertRemote(context context.Context, username string, badge Badge) error {
	context, cancel := facade.remoteContext(context)
	defer cancel()

	userID, err := facade.resolveUserID(context, username)
	if err != nil {
		return err
	}
	if err := facade.remote.InsertBadge(context, userID, badge); err != nil {
		return remoteError(err)
	}
	return nil
}

// resolveUserID returns the remote id of username, creating the user when
// absent. Used by writes.
func (facade *Facade) resolveUserID(context context.Context, username string) (string, error) {
	if userID, ok := facade.cache.UserID(username); ok {
		return userID, nil
	}

	userID, err := facade.remote.ResolveOrCreateUser(context, username)
	if err != nil {
		return "", remoteError(err)
	}
	facade.cache.PutUserID(username, userID)

	return userID, nil
}

// lookupUserID returns the remote id of username without creating it. Used by reads.
func (facade *Facade) lookupUserID(context context.Context, username string) (string, bool, error) {
	if userID, ok := facade.cache.UserID(username); ok {
		return userID, true, nil
	}

	userID, found, err := facade.remote.FindUserID(context, username)
	if err != nil {
		return "", false, remoteError(err)
	}
	if found {
		facade.cache.PutUserID(username, userID)
	}

	return userID, found, nil
}

/*
Badges returns a user's badges in earn order.

Description: Remote reads go through the cache. Concurrent identical reads
share one remote call, and a read that started before an invalidation never
stores its result.

Parameters:
  - context: context.Context
  - rawUsername: string

Returns:
  - []Badge: Possibly empty
  - error: VALIDATION_ERROR, or the remote error when fallback is not allowed
*/
func (facade *Facade) Badges(context context.Context, rawUsername string) ([]Badge, error) {
	username, err := NormalizeUsername(rawUsername)
	if err != nil {
		return nil, err
	}

	if facade.useRemote() {
		badges, err := facade.readRemote(context, username)
		if err == nil {
			return badges, nil
		}
		if callerGone(context, err) || !facade.canFallback(err) {
			facade.logger.WarnContext(context, "profile_badges_failed",
				slog.String("username", username), slog.String("kind", apperr.Kind(err)), slog.Any("error", err))
			return nil, err
		}
		facade.switchToFallback(context, "badges", username, err)
	}

	return facade.local.GetBadges(context, username), nil
}

// BadgeCount returns the number of badges [Facade.Badges] reports.
func (facade *Facade) BadgeCount(context context.Context, rawUsername string) (int, error) {
	badges, err := facade.Badges(context, rawUsername)
	if err != nil {
		return 0, err
	}
	return len(badges), nil
}

func (facade *Facade) readRemote(caller context.Context, username string) ([]Badge, error) {
	if badges, ok := facade.cache.Badges(username); ok {
		return badges, nil
	}

	generation := facade.cache.Snapshot(username)
	key := username + "@" + generation.String()

	// The flight outlives any single caller; listRemote still bounds it by
	// the remote timeout.
	flight := context.WithoutCancel(caller)
	results := facade.reads.DoChan(key, func() (any, error) {
		return facade.listRemote(flight, username, generation)
	})

	select {
	case result := <-results:
		if result.Err != nil {
			return nil, result.Err
		}
		return cloneBadges(result.Val.([]Badge)), nil
	case <-caller.Done():
		return nil, caller.Err()
	}
}

func (facade *Facade) listRemote(context context.Context, username string, generation Generation) ([]Badge, error) {
	// A flight that finished between the caller's cache check and this one
	// has already stored the list.
	if badges, ok := facade.cache.Badges(username); ok {
		return badges, nil
	}

	context, cancel := facade.remoteContext(context)
	defer cancel()

	userID, found, err := facade.lookupUserID(context, username)
	if err != nil {
		return nil, err
	}

	badges := []Badge{}
	if found {
		badges, err = facade.remote.ListBadges(context, userID)
		if err != nil {
			return nil, remoteError(err)
		}
	}
	facade.cache.PutBadgesIfCurrent(username, badges, generation)

	return badges, nil
}

// # Routing

// useRemote reports whether badge operations go to the remote store.
func (facade *Facade) useRemote() bool {
	if facade.backend != BackendRemote {
		return false
	}

	facade.mu.RLock()
	defer facade.mu.RUnlock()

	return facade.session == nil || !facade.session.UsingFallback
}

// canFallback reports whether a remote failure may be served locally. Input
// and credential rejections are final.
func (facade *Facade) canFallback(err error) bool {
	if !facade.settings.AllowsFallback() {
		return false
	}
	return !apperr.HasCode(err, apperr.CodeValidation) && !apperr.HasCode(err, apperr.CodeAuth)
}

// switchToFallback pins the current session to the local store.
func (facade *Facade) switchToFallback(context context.Context, operation, username string, cause error) {
	facade.logger.WarnContext(context, "profile_remote_fallback",
		slog.String("op", operation),
		slog.String("username", username),
		slog.String("kind", apperr.Kind(cause)),
		slog.Any("error", cause),
	)

	facade.mu.Lock()
	defer facade.mu.Unlock()

	if facade.session != nil {
		facade.session.UsingFallback = true
	}
}

func (facade *Facade) remoteContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, facade.remoteTimeout)
}

// callerGone reports whether err stems from the caller abandoning the request
// rather than from the remote store. Such failures never fall back.
func callerGone(caller context.Context, err error) bool {
	if caller.Err() == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// remoteError classifies a remote failure. Anything that is not already an
// [apperr.AppError], deadline expiry included, counts as a transport failure.
func remoteError(err error) error {
	if err == nil || apperr.IsAppError(err) {
		return err
	}
	return apperr.Transport(err)
}
