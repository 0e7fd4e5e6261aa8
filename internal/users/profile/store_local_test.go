// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile_test

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/edubadge/internal/platform/apperr"
	"github.com/taibuivan/edubadge/internal/platform/constants"
	"github.com/taibuivan/edubadge/internal/platform/sqlite"
	"github.com/taibuivan/edubadge/internal/users/profile"
)

/*
TestLocalStore_GetAllFailsSoft verifies that missing, corrupt or unreadable
data yields an empty mapping.
*/
func TestLocalStore_GetAllFailsSoft(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		setup func(kv *memKV)
	}{
		{"missing", func(*memKV) {}},
		{"empty", func(kv *memKV) { kv.values[constants.LocalUsersKey] = "" }},
		{"corrupt", func(kv *memKV) { kv.values[constants.LocalUsersKey] = "{not json" }},
		{"wrong_shape", func(kv *memKV) { kv.values[constants.LocalUsersKey] = "[1,2,3]" }},
		{"unreadable", func(kv *memKV) { kv.getErr = errors.New("disk I/O error") }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			kv := newMemKV()
			tc.setup(kv)
			store := profile.NewLocalStore(kv, discardLogger())

			records := store.GetAll(ctx)
			assert.NotNil(t, records)
			assert.Empty(t, records)
			assert.Empty(t, store.GetBadges(ctx, "ivan"))
		})
	}
}

/*
TestLocalStore_SaveAllFailure verifies that a rejected write is a PERSISTENCE_ERROR.
*/
func TestLocalStore_SaveAllFailure(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	kv.setErr = errors.New("quota exceeded")
	store := profile.NewLocalStore(kv, discardLogger())

	err := store.AppendBadge(ctx, "ivan", "Star", "⭐")
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodePersistence))

	err = store.Create(ctx, "ivan")
	assert.True(t, apperr.HasCode(err, apperr.CodePersistence))
}

/*
TestLocalStore_ReadFailureKeepsData verifies that a write never replaces a
document it could not read.
*/
func TestLocalStore_ReadFailureKeepsData(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	store := profile.NewLocalStore(kv, discardLogger())
	require.NoError(t, store.AppendBadge(ctx, "Petar", "Star", "⭐"))
	require.NoError(t, store.AppendBadge(ctx, "Petar", "Moon", "🌙"))

	writes := []struct {
		name string
		call func() error
	}{
		{"append_badge", func() error { return store.AppendBadge(ctx, "Ivan", "Sun", "") }},
		{"create", func() error { return store.Create(ctx, "Ivan") }},
	}

	for _, tc := range writes {
		t.Run(tc.name, func(t *testing.T) {
			kv.getErr = errors.New("database is locked")
			err := tc.call()
			kv.getErr = nil

			require.Error(t, err)
			assert.True(t, apperr.HasCode(err, apperr.CodePersistence))
			assert.Len(t, store.GetBadges(ctx, "Petar"), 2)
			assert.False(t, store.Exists(ctx, "Ivan"))
		})
	}
}

/*
TestLocalStore_Records verifies create, append and read semantics.
*/
func TestLocalStore_Records(t *testing.T) {
	ctx := context.Background()
	store := profile.NewLocalStore(newMemKV(), discardLogger())

	assert.False(t, store.Exists(ctx, "ivan"))
	require.NoError(t, store.Create(ctx, "ivan"))
	assert.True(t, store.Exists(ctx, "ivan"))

	record, ok := store.GetRecord(ctx, "ivan")
	require.True(t, ok)
	assert.Equal(t, "ivan", record.Username)
	assert.False(t, record.CreatedAt.IsZero())
	assert.Empty(t, record.Badges)

	require.NoError(t, store.AppendBadge(ctx, "ivan", "Star", "⭐"))
	require.NoError(t, store.Create(ctx, "ivan"))
	require.NoError(t, store.AppendBadge(ctx, "maria", "Moon", "🌙"))

	badges := store.GetBadges(ctx, "ivan")
	require.Len(t, badges, 1)
	assert.Equal(t, "Star", badges[0].Name)
	assert.False(t, badges[0].EarnedAt.IsZero())

	maria, ok := store.GetRecord(ctx, "maria")
	require.True(t, ok)
	assert.Len(t, maria.Badges, 1)

	_, ok = store.GetRecord(ctx, "petar")
	assert.False(t, ok)
}

/*
TestLocalStore_Layout verifies the persisted JSON document shape.
*/
func TestLocalStore_Layout(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	store := profile.NewLocalStore(kv, discardLogger())
	require.NoError(t, store.AppendBadge(ctx, "ivan", "Star", "⭐"))

	var document map[string]map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(kv.values[constants.LocalUsersKey]), &document))

	require.Contains(t, document, "ivan")
	assert.Contains(t, document["ivan"], "createdAt")
	assert.Contains(t, document["ivan"], "badges")

	var badges []map[string]string
	require.NoError(t, json.Unmarshal(document["ivan"]["badges"], &badges))
	require.Len(t, badges, 1)
	assert.Equal(t, "Star", badges[0]["name"])
	assert.Equal(t, "⭐", badges[0]["emoji"])
	assert.NotEmpty(t, badges[0]["earnedAt"])
}

/*
TestLocalStore_ActiveUser verifies that the session marker is independent of records.
*/
func TestLocalStore_ActiveUser(t *testing.T) {
	store := profile.NewLocalStore(newMemKV(), discardLogger())

	_, ok := store.GetActiveUser()
	assert.False(t, ok)

	store.SetActiveUser("ivan")
	active, ok := store.GetActiveUser()
	require.True(t, ok)
	assert.Equal(t, "ivan", active)
	assert.False(t, store.Exists(context.Background(), "ivan"))

	store.ClearActiveUser()
	_, ok = store.GetActiveUser()
	assert.False(t, ok)
}

/*
TestLocalStore_SQLite verifies that records survive reopening the device file.
*/
func TestLocalStore_SQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "device", "edubadge.db")

	kv, err := sqlite.Open(path)
	require.NoError(t, err)
	store := profile.NewLocalStore(kv, discardLogger())
	require.NoError(t, store.AppendBadge(ctx, "ivan", "Star", "⭐"))
	require.NoError(t, store.AppendBadge(ctx, "ivan", "Moon", "🌙"))
	require.NoError(t, kv.Close())

	kv, err = sqlite.Open(path)
	require.NoError(t, err)
	defer kv.Close()

	badges := profile.NewLocalStore(kv, discardLogger()).GetBadges(ctx, "ivan")
	require.Len(t, badges, 2)
	assert.Equal(t, "Star", badges[0].Name)
	assert.Equal(t, "Moon", badges[1].Name)
}
