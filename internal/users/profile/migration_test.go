// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/edubadge/internal/users/profile"
)

func newMigrationFixture(t *testing.T) (*fixture, *profile.MigrationService) {
	t.Helper()
	f := newFixture(remoteSettings(), true)
	return f, profile.NewMigrationService(f.facade, discardLogger())
}

/*
TestScenario_Petar covers migrating two local badges to an empty remote store
and verifying the copy.
*/
func TestScenario_Petar(t *testing.T) {
	ctx := context.Background()
	f, service := newMigrationFixture(t)
	require.NoError(t, f.local.AppendBadge(ctx, "Petar", "Star", "⭐"))
	require.NoError(t, f.local.AppendBadge(ctx, "Petar", "Moon", "🌙"))

	result := service.MigrateUserData(ctx, "Petar")
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.MigratedCount)
	assert.Zero(t, result.FailedCount)

	verification := service.VerifyMigration(ctx, "Petar")
	assert.True(t, verification.Success)
	assert.Equal(t, 2, verification.LocalCount)
	assert.Equal(t, 2, verification.RemoteCount)

	t.Run("out_of_band_local_change", func(t *testing.T) {
		require.NoError(t, f.local.AppendBadge(ctx, "Petar", "Sun", "☀️"))

		verification := service.VerifyMigration(ctx, "Petar")
		assert.False(t, verification.Success)
		assert.Equal(t, verification.RemoteCount+1, verification.LocalCount)
		assert.Contains(t, verification.Message, "mismatch")
	})
}

/*
TestMigrateUserData_PreservesOrder verifies that remote badges keep their
local earn times and order.
*/
func TestMigrateUserData_PreservesOrder(t *testing.T) {
	ctx := context.Background()
	f, service := newMigrationFixture(t)
	require.NoError(t, f.local.AppendBadge(ctx, "Petar", "Star", "⭐"))
	require.NoError(t, f.local.AppendBadge(ctx, "Petar", "Moon", "🌙"))
	local := f.local.GetBadges(ctx, "Petar")

	service.MigrateUserData(ctx, "Petar")

	remote := f.remote.remoteBadges("Petar")
	require.Len(t, remote, 2)
	for i := range local {
		assert.Equal(t, local[i].Name, remote[i].Name)
		assert.True(t, local[i].EarnedAt.Equal(remote[i].EarnedAt))
	}
}

/*
TestMigrateUserData_Partial verifies that a failing insert does not abort the rest.
*/
func TestMigrateUserData_Partial(t *testing.T) {
	ctx := context.Background()
	f, service := newMigrationFixture(t)
	for _, name := range []string{"One", "Two", "Three"} {
		require.NoError(t, f.local.AppendBadge(ctx, "Petar", name, ""))
	}
	f.remote.failNames["Two"] = true

	result := service.MigrateUserData(ctx, "Petar")
	assert.False(t, result.Success)
	assert.Equal(t, 2, result.MigratedCount)
	assert.Equal(t, 1, result.FailedCount)
	assert.Equal(t, 3, f.remote.count("InsertBadge"))
}

/*
TestMigrateUserData_EdgeCases covers the no-op and failure outcomes.
*/
func TestMigrateUserData_EdgeCases(t *testing.T) {
	ctx := context.Background()

	t.Run("no_local_badges", func(t *testing.T) {
		f, service := newMigrationFixture(t)

		result := service.MigrateUserData(ctx, "Ghost")
		assert.True(t, result.Success)
		assert.Zero(t, result.MigratedCount)
		assert.NotEmpty(t, result.Message)
		assert.Zero(t, f.remote.count("ResolveOrCreateUser"))
	})

	t.Run("invalid_username", func(t *testing.T) {
		_, service := newMigrationFixture(t)

		result := service.MigrateUserData(ctx, "  ")
		assert.False(t, result.Success)
	})

	t.Run("remote_user_unavailable", func(t *testing.T) {
		f, service := newMigrationFixture(t)
		require.NoError(t, f.local.AppendBadge(ctx, "Petar", "Star", ""))
		f.remote.setErr(&f.remote.resolveErr, errTransport("down"))

		result := service.MigrateUserData(ctx, "Petar")
		assert.False(t, result.Success)
		assert.Equal(t, 1, result.FailedCount)
		assert.Zero(t, f.remote.count("InsertBadge"))
	})

	t.Run("remote_not_configured", func(t *testing.T) {
		f := newFixture(remoteSettings(), false)
		service := profile.NewMigrationService(f.facade, discardLogger())
		require.NoError(t, f.local.AppendBadge(ctx, "Petar", "Star", ""))

		assert.False(t, service.MigrateUserData(ctx, "Petar").Success)
		assert.False(t, service.VerifyMigration(ctx, "Petar").Success)
	})
}

/*
TestMigrateUserData_InvalidatesCache verifies that a cached remote list is
refreshed after migration.
*/
func TestMigrateUserData_InvalidatesCache(t *testing.T) {
	ctx := context.Background()
	f, service := newMigrationFixture(t)

	require.NoError(t, f.facade.AddBadge(ctx, "Petar", "Remote", ""))
	badges, err := f.facade.Badges(ctx, "Petar")
	require.NoError(t, err)
	require.Len(t, badges, 1)

	require.NoError(t, f.local.AppendBadge(ctx, "Petar", "Local", ""))
	service.MigrateUserData(ctx, "Petar")

	badges, err = f.facade.Badges(ctx, "Petar")
	require.NoError(t, err)
	assert.Len(t, badges, 2)
}

/*
TestMigrateAllUsers verifies that every local user is migrated in username order.
*/
func TestMigrateAllUsers(t *testing.T) {
	ctx := context.Background()
	f, service := newMigrationFixture(t)
	require.NoError(t, f.local.AppendBadge(ctx, "Petar", "Star", ""))
	require.NoError(t, f.local.AppendBadge(ctx, "Ana", "Moon", ""))
	require.NoError(t, f.local.AppendBadge(ctx, "Ana", "Sun", ""))
	require.NoError(t, f.local.Create(ctx, "Maria"))

	results := service.MigrateAllUsers(ctx)
	require.Len(t, results, 3)

	assert.Equal(t, "Ana", results[0].Username)
	assert.Equal(t, 2, results[0].MigratedCount)
	assert.Equal(t, "Maria", results[1].Username)
	assert.Zero(t, results[1].MigratedCount)
	assert.Equal(t, "Petar", results[2].Username)
	assert.Equal(t, 1, results[2].MigratedCount)

	for _, result := range results {
		assert.True(t, result.Success, result.Username)
	}
}

/*
TestVerifyMigration_ReadOnly verifies that verification bypasses the cache and
never writes.
*/
func TestVerifyMigration_ReadOnly(t *testing.T) {
	ctx := context.Background()
	f, service := newMigrationFixture(t)
	require.NoError(t, f.local.AppendBadge(ctx, "Petar", "Star", ""))
	writes := f.kv.setHits

	first := service.VerifyMigration(ctx, "Petar")
	second := service.VerifyMigration(ctx, "Petar")

	assert.False(t, first.Success)
	assert.Equal(t, 1, first.LocalCount)
	assert.Zero(t, first.RemoteCount)
	assert.Equal(t, first, second)

	assert.Equal(t, writes, f.kv.setHits)
	assert.Zero(t, f.remote.count("ResolveOrCreateUser"))
	assert.Zero(t, f.remote.count("InsertBadge"))
	assert.Equal(t, 2, f.remote.count("FindUserID"))

	t.Run("remote_error", func(t *testing.T) {
		f.remote.setErr(&f.remote.findErr, errTransport("down"))

		result := service.VerifyMigration(ctx, "Petar")
		assert.False(t, result.Success)
		assert.Contains(t, result.Message, "Could not read")
	})
}
