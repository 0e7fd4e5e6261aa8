// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/taibuivan/edubadge/internal/platform/apperr"
	"github.com/taibuivan/edubadge/internal/users/profile"
)

// # Remote Store Fake

// fakeRemote is an in-memory RemoteStore that counts calls and can be told to fail.
type fakeRemote struct {
	mu sync.Mutex

	users       map[string]string
	credentials map[string]string
	badges      map[string][]profile.Badge
	signedOut   []string
	nextID      int

	calls map[string]int

	resolveErr error
	signInErr  error
	insertErr  error
	listErr    error
	findErr    error

	// failNames makes InsertBadge fail for these badge names only.
	failNames map[string]bool

	// listHook runs before ListBadges reads, outside the lock.
	listHook func(context.Context) error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		users:       make(map[string]string),
		credentials: make(map[string]string),
		badges:      make(map[string][]profile.Badge),
		calls:       make(map[string]int),
		failNames:   make(map[string]bool),
	}
}

func (remote *fakeRemote) count(method string) int {
	remote.mu.Lock()
	defer remote.mu.Unlock()
	return remote.calls[method]
}

func (remote *fakeRemote) setErr(target *error, err error) {
	remote.mu.Lock()
	defer remote.mu.Unlock()
	*target = err
}

func (remote *fakeRemote) resolveLocked(username string) string {
	if id, ok := remote.users[username]; ok {
		return id
	}
	remote.nextID++
	id := fmt.Sprintf("user-%d", remote.nextID)
	remote.users[username] = id
	return id
}

func (remote *fakeRemote) ResolveOrCreateUser(_ context.Context, username string) (string, error) {
	remote.mu.Lock()
	defer remote.mu.Unlock()

	remote.calls["ResolveOrCreateUser"]++
	if remote.resolveErr != nil {
		return "", remote.resolveErr
	}
	return remote.resolveLocked(username), nil
}

func (remote *fakeRemote) SignInOrRegister(_ context.Context, username, credential string) (profile.RemoteSession, error) {
	remote.mu.Lock()
	defer remote.mu.Unlock()

	remote.calls["SignInOrRegister"]++
	if remote.signInErr != nil {
		return profile.RemoteSession{}, remote.signInErr
	}
	if stored, ok := remote.credentials[username]; ok && stored != credential {
		return profile.RemoteSession{}, apperr.Auth("Invalid username or credential")
	}
	remote.credentials[username] = credential

	id := remote.resolveLocked(username)
	return profile.RemoteSession{UserID: id, Token: "token-" + id, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (remote *fakeRemote) SignOut(_ context.Context, token string) error {
	remote.mu.Lock()
	defer remote.mu.Unlock()

	remote.calls["SignOut"]++
	remote.signedOut = append(remote.signedOut, token)
	return nil
}

func (remote *fakeRemote) InsertBadge(_ context.Context, userID string, badge profile.Badge) error {
	remote.mu.Lock()
	defer remote.mu.Unlock()

	remote.calls["InsertBadge"]++
	if remote.insertErr != nil {
		return remote.insertErr
	}
	if remote.failNames[badge.Name] {
		return errors.New("connection reset by peer")
	}
	if badge.EarnedAt.IsZero() {
		badge.EarnedAt = time.Now().UTC()
	}
	remote.badges[userID] = append(remote.badges[userID], badge)
	return nil
}

func (remote *fakeRemote) ListBadges(context context.Context, userID string) ([]profile.Badge, error) {
	remote.mu.Lock()
	remote.calls["ListBadges"]++
	hook, err := remote.listHook, remote.listErr
	remote.mu.Unlock()

	if hook != nil {
		if err := hook(context); err != nil {
			return nil, err
		}
	}
	if err != nil {
		return nil, err
	}

	remote.mu.Lock()
	defer remote.mu.Unlock()

	out := make([]profile.Badge, len(remote.badges[userID]))
	copy(out, remote.badges[userID])
	return out, nil
}

func (remote *fakeRemote) FindUserID(_ context.Context, username string) (string, bool, error) {
	remote.mu.Lock()
	defer remote.mu.Unlock()

	remote.calls["FindUserID"]++
	if remote.findErr != nil {
		return "", false, remote.findErr
	}
	id, ok := remote.users[username]
	return id, ok, nil
}

func (remote *fakeRemote) Ping(context.Context) error { return nil }

func (remote *fakeRemote) remoteBadges(username string) []profile.Badge {
	remote.mu.Lock()
	defer remote.mu.Unlock()
	return remote.badges[remote.users[username]]
}

// # Key-Value Fake

type memKV struct {
	mu      sync.Mutex
	values  map[string]string
	setErr  error
	getErr  error
	setHits int
}

func newMemKV() *memKV {
	return &memKV{values: make(map[string]string)}
}

func (kv *memKV) Get(_ context.Context, key string) (string, bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.getErr != nil {
		return "", false, kv.getErr
	}
	value, ok := kv.values[key]
	return value, ok, nil
}

func (kv *memKV) Set(_ context.Context, key, value string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.setHits++
	if kv.setErr != nil {
		return kv.setErr
	}
	kv.values[key] = value
	return nil
}

// # Settings & Clock

type settings struct {
	enabled  bool
	fallback bool
	ttl      time.Duration
}

func (s settings) IsEnabled() bool         { return s.enabled }
func (s settings) AllowsFallback() bool    { return s.fallback }
func (s settings) CacheTTL() time.Duration { return s.ttl }

func remoteSettings() settings {
	return settings{enabled: true, fallback: true, ttl: 5 * time.Minute}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func errTransport(message string) error {
	return apperr.Transport(errors.New(message))
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (clock *fakeClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.now
}

func (clock *fakeClock) Advance(d time.Duration) {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	clock.now = clock.now.Add(d)
}

// # Fixture

type fixture struct {
	remote *fakeRemote
	kv     *memKV
	local  *profile.LocalStore
	clock  *fakeClock
	facade *profile.Facade
}

func newFixture(cfg settings, withRemote bool, options ...profile.Option) *fixture {
	f := &fixture{kv: newMemKV(), clock: newFakeClock()}
	f.local = profile.NewLocalStore(f.kv, discardLogger())

	var remote profile.RemoteStore
	if withRemote {
		f.remote = newFakeRemote()
		remote = f.remote
	}

	options = append([]profile.Option{profile.WithClock(f.clock.Now)}, options...)
	f.facade = profile.NewFacade(cfg, f.local, remote, discardLogger(), options...)
	return f
}
