// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/taibuivan/edubadge/internal/platform/apperr"
	"github.com/taibuivan/edubadge/internal/platform/constants"
)

// # Local Store

// LocalStore keeps every user record of the device in one JSON document under
// [constants.LocalUsersKey].
//
// The active-user slot is process memory only and does not survive a restart.
type LocalStore struct {
	kv     KeyValueStore
	logger *slog.Logger
	now    func() time.Time

	// mu serializes read-modify-write cycles of the whole document.
	mu sync.Mutex

	activeMu sync.RWMutex
	active   string
}

// NewLocalStore creates a [LocalStore] over a device-local key-value store.
func NewLocalStore(kv KeyValueStore, logger *slog.Logger) *LocalStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalStore{kv: kv, logger: logger, now: time.Now}
}

// storedRecord is the persisted shape of one user entry.
type storedRecord struct {
	Badges    []Badge   `json:"badges"`
	CreatedAt time.Time `json:"createdAt"`
}

/*
GetAll returns every stored user record keyed by username.

Description: Fails soft. A missing, unreadable or corrupt document yields an
empty map and a warning log instead of an error, so a damaged file never
blocks the app.

Parameters:
  - context: context.Context

Returns:
  - map[string]UserRecord: Possibly empty, never nil
*/
func (store *LocalStore) GetAll(context context.Context) map[string]UserRecord {
	records, err := store.load(context)
	if err != nil {
		store.logger.WarnContext(context, "local_store_read_failed", slog.Any("error", err))
		return make(map[string]UserRecord)
	}
	return records
}

// load decodes the stored document. A missing or corrupt document is empty;
// a failed read is a PERSISTENCE_ERROR so that writers never overwrite data
// they could not see.
func (store *LocalStore) load(context context.Context) (map[string]UserRecord, error) {
	records := make(map[string]UserRecord)

	raw, found, err := store.kv.Get(context, constants.LocalUsersKey)
	if err != nil {
		return nil, apperr.Persistence(fmt.Errorf("local_store_read_failed: %w", err))
	}
	if !found || raw == "" {
		return records, nil
	}

	var stored map[string]storedRecord
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		store.logger.WarnContext(context, "local_store_corrupt", slog.Any("error", err))
		return records, nil
	}

	for username, record := range stored {
		badges := record.Badges
		if badges == nil {
			badges = []Badge{}
		}
		records[username] = UserRecord{Username: username, CreatedAt: record.CreatedAt, Badges: badges}
	}
	return records, nil
}

/*
SaveAll replaces the whole stored document.

Parameters:
  - context: context.Context
  - records: map[string]UserRecord

Returns:
  - error: PERSISTENCE_ERROR when the device store rejects the write
*/
func (store *LocalStore) SaveAll(context context.Context, records map[string]UserRecord) error {
	stored := make(map[string]storedRecord, len(records))
	for username, record := range records {
		badges := record.Badges
		if badges == nil {
			badges = []Badge{}
		}
		stored[username] = storedRecord{Badges: badges, CreatedAt: record.CreatedAt}
	}

	payload, err := json.Marshal(stored)
	if err != nil {
		return apperr.Persistence(fmt.Errorf("local_store_encode_failed: %w", err))
	}
	if err := store.kv.Set(context, constants.LocalUsersKey, string(payload)); err != nil {
		return apperr.Persistence(fmt.Errorf("local_store_write_failed: %w", err))
	}
	return nil
}

// Exists reports whether a record for username is stored.
func (store *LocalStore) Exists(context context.Context, username string) bool {
	_, ok := store.GetAll(context)[username]
	return ok
}

/*
Create stores an empty record for username. An existing record is left
untouched and the call succeeds.

Parameters:
  - context: context.Context
  - username: string

Returns:
  - error: PERSISTENCE_ERROR
*/
func (store *LocalStore) Create(context context.Context, username string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	records, err := store.load(context)
	if err != nil {
		return err
	}
	if _, ok := records[username]; ok {
		return nil
	}
	records[username] = UserRecord{Username: username, CreatedAt: store.now().UTC(), Badges: []Badge{}}
	return store.SaveAll(context, records)
}

// GetRecord returns the stored record for username.
func (store *LocalStore) GetRecord(context context.Context, username string) (UserRecord, bool) {
	record, ok := store.GetAll(context)[username]
	if !ok {
		return UserRecord{}, false
	}
	record.Badges = cloneBadges(record.Badges)
	return record, true
}

/*
AppendBadge adds a badge earned now to the user's list, creating the user
first when absent.

Parameters:
  - context: context.Context
  - username: string
  - name: string
  - emoji: string

Returns:
  - error: PERSISTENCE_ERROR
*/
func (store *LocalStore) AppendBadge(context context.Context, username, name, emoji string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	now := store.now().UTC()
	records, err := store.load(context)
	if err != nil {
		return err
	}

	record, ok := records[username]
	if !ok {
		record = UserRecord{Username: username, CreatedAt: now, Badges: []Badge{}}
	}
	record.Badges = append(record.Badges, Badge{Name: name, Emoji: emoji, EarnedAt: now})
	records[username] = record

	return store.SaveAll(context, records)
}

// GetBadges returns the user's badges in earn order, or an empty list.
func (store *LocalStore) GetBadges(context context.Context, username string) []Badge {
	record, ok := store.GetRecord(context, username)
	if !ok {
		return []Badge{}
	}
	return record.Badges
}

// # Active User

// SetActiveUser marks username as the user of the current session.
func (store *LocalStore) SetActiveUser(username string) {
	store.activeMu.Lock()
	defer store.activeMu.Unlock()
	store.active = username
}

// GetActiveUser returns the user of the current session, if any.
func (store *LocalStore) GetActiveUser() (string, bool) {
	store.activeMu.RLock()
	defer store.activeMu.RUnlock()
	return store.active, store.active != ""
}

// ClearActiveUser forgets the user of the current session.
func (store *LocalStore) ClearActiveUser() {
	store.activeMu.Lock()
	defer store.activeMu.Unlock()
	store.active = ""
}
