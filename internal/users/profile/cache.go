// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile

import (
	"strconv"
	"sync"
	"time"
)

// # Read-Through Cache

// DefaultCacheTTL is how long a cached entry stays valid when no TTL is configured.
const DefaultCacheTTL = 5 * time.Minute

type cacheEntry[T any] struct {
	value     T
	writtenAt time.Time
}

// Generation identifies the state of a username's cache entries at a point in
// time. Any invalidation of the username, or a [Cache.Clear], moves it on.
type Generation struct {
	epoch uint64
	user  uint64
}

// String renders the generation as a compact token, suitable as part of a
// request-collapsing key.
func (generation Generation) String() string {
	return strconv.FormatUint(generation.epoch, 10) + "." + strconv.FormatUint(generation.user, 10)
}

// Cache holds remote user ids and badge lists for a bounded time.
//
// An entry older than the TTL is reported absent and dropped on access.
// Returned badge slices are copies.
type Cache struct {
	ttl time.Duration
	now func() time.Time

	mu          sync.Mutex
	userIDs     map[string]cacheEntry[string]
	badges      map[string]cacheEntry[[]Badge]
	generations map[string]uint64
	epoch       uint64
}

// NewCache creates an empty [Cache]. A non-positive ttl selects
// [DefaultCacheTTL]; a nil clock selects [time.Now].
func NewCache(ttl time.Duration, now func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Cache{
		ttl:         ttl,
		now:         now,
		userIDs:     make(map[string]cacheEntry[string]),
		badges:      make(map[string]cacheEntry[[]Badge]),
		generations: make(map[string]uint64),
	}
}

// TTL returns the entry lifetime.
func (cache *Cache) TTL() time.Duration { return cache.ttl }

func (cache *Cache) fresh(writtenAt time.Time) bool {
	return cache.now().Sub(writtenAt) < cache.ttl
}

// UserID returns the cached remote id for username.
func (cache *Cache) UserID(username string) (string, bool) {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	entry, ok := cache.userIDs[username]
	if !ok {
		return "", false
	}
	if !cache.fresh(entry.writtenAt) {
		delete(cache.userIDs, username)
		return "", false
	}
	return entry.value, true
}

// PutUserID caches the remote id for username.
func (cache *Cache) PutUserID(username, userID string) {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.userIDs[username] = cacheEntry[string]{value: userID, writtenAt: cache.now()}
}

// Badges returns a copy of the cached badge list for username.
func (cache *Cache) Badges(username string) ([]Badge, bool) {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	entry, ok := cache.badges[username]
	if !ok {
		return nil, false
	}
	if !cache.fresh(entry.writtenAt) {
		delete(cache.badges, username)
		return nil, false
	}
	return cloneBadges(entry.value), true
}

// PutBadges caches a copy of badges for username unconditionally.
func (cache *Cache) PutBadges(username string, badges []Badge) {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.badges[username] = cacheEntry[[]Badge]{value: cloneBadges(badges), writtenAt: cache.now()}
}

// Snapshot returns the current generation of username.
func (cache *Cache) Snapshot(username string) Generation {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	return Generation{epoch: cache.epoch, user: cache.generations[username]}
}

// PutBadgesIfCurrent caches badges only if username is still at generation.
// It reports whether the list was stored.
func (cache *Cache) PutBadgesIfCurrent(username string, badges []Badge, generation Generation) bool {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	if generation != (Generation{epoch: cache.epoch, user: cache.generations[username]}) {
		return false
	}
	cache.badges[username] = cacheEntry[[]Badge]{value: cloneBadges(badges), writtenAt: cache.now()}
	return true
}

// InvalidateBadges drops the cached badge list of username.
func (cache *Cache) InvalidateBadges(username string) {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	delete(cache.badges, username)
	cache.generations[username]++
}

// Invalidate drops every cached entry of username.
func (cache *Cache) Invalidate(username string) {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	delete(cache.userIDs, username)
	delete(cache.badges, username)
	cache.generations[username]++
}

// Clear drops every cached entry.
func (cache *Cache) Clear() {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.userIDs = make(map[string]cacheEntry[string])
	cache.badges = make(map[string]cacheEntry[[]Badge])
	cache.generations = make(map[string]uint64)
	cache.epoch++
}
