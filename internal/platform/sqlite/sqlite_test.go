// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/edubadge/internal/platform/sqlite"
)

func openTemp(t *testing.T) (*sqlite.KV, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "device.db")
	kv, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	return kv, path
}

/*
TestKV_SetGetDelete covers the basic key-value contract.
*/
func TestKV_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	kv, _ := openTemp(t)

	_, found, err := kv.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, kv.Set(ctx, "k", "v1"))
	require.NoError(t, kv.Set(ctx, "k", "v2"))

	value, found, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v2", value)

	require.NoError(t, kv.Delete(ctx, "k"))
	require.NoError(t, kv.Delete(ctx, "k"))
	_, found, err = kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, kv.Ping(ctx))
}

/*
TestKV_Reopen verifies values survive closing the file and that migrations are idempotent.
*/
func TestKV_Reopen(t *testing.T) {
	ctx := context.Background()
	kv, path := openTemp(t)
	require.NoError(t, kv.Set(ctx, "edubadge.users", `{"Ivan":{"badges":[]}}`))
	require.NoError(t, kv.Close())

	reopened, err := sqlite.Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	value, found, err := reopened.Get(ctx, "edubadge.users")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"Ivan":{"badges":[]}}`, value)
}

/*
TestOpen_RequiresPath rejects an empty path.
*/
func TestOpen_RequiresPath(t *testing.T) {
	_, err := sqlite.Open("  ")
	assert.Error(t, err)
}
