// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/taibuivan/edubadge/internal/platform/apperr"
)

// # Migration

// MigrationResult reports the copy of one user's device-local badges.
type MigrationResult struct {
	Username      string `json:"username"`
	Success       bool   `json:"success"`
	MigratedCount int    `json:"migratedCount"`
	FailedCount   int    `json:"failedCount"`
	Message       string `json:"message"`
}

// VerificationResult compares a user's local and remote badge counts.
type VerificationResult struct {
	Username    string `json:"username"`
	Success     bool   `json:"success"`
	LocalCount  int    `json:"localCount"`
	RemoteCount int    `json:"supabaseCount"`
	Message     string `json:"message"`
}

// MigrationService copies device-local badges into the remote store.
//
// Copies are insert-only: running a migration twice duplicates the remote
// badges, which [MigrationService.VerifyMigration] then reports as a mismatch.
type MigrationService struct {
	facade *Facade
	logger *slog.Logger
}

// NewMigrationService creates a [MigrationService] over the stores of facade.
func NewMigrationService(facade *Facade, logger *slog.Logger) *MigrationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MigrationService{facade: facade, logger: logger}
}

/*
MigrateUserData copies every local badge of a user to the remote store.

Description: Badges are inserted one at a time with their original earn time;
a failed insert is counted and the rest continue. The cached badge list of the
user is discarded afterwards.

Parameters:
  - context: context.Context
  - rawUsername: string

Returns:
  - MigrationResult
*/
func (service *MigrationService) MigrateUserData(context context.Context, rawUsername string) MigrationResult {
	username, err := NormalizeUsername(rawUsername)
	if err != nil {
		return MigrationResult{Username: rawUsername, Message: err.Error()}
	}
	result := MigrationResult{Username: username}

	if service.facade.remote == nil {
		result.Message = apperr.NotConfigured("Remote").Message
		return result
	}

	badges := service.facade.local.GetBadges(context, username)
	if len(badges) == 0 {
		result.Success = true
		result.Message = fmt.Sprintf("No local badges to migrate for %s", username)
		return result
	}

	logger := service.logger.With(slog.String("op", "migrate_user"), slog.String("username", username))

	userID, err := service.resolveUserID(context, username)
	if err != nil {
		logger.ErrorContext(context, "migration_user_failed", slog.String("kind", apperr.Kind(err)), slog.Any("error", err))
		result.FailedCount = len(badges)
		result.Message = fmt.Sprintf("Could not create remote user %s: %s", username, err.Error())
		return result
	}

	for index, badge := range badges {
		if err := service.insertBadge(context, userID, badge); err != nil {
			result.FailedCount++
			logger.WarnContext(context, "migration_badge_failed",
				slog.Int("index", index),
				slog.String("badge", badge.Name),
				slog.String("kind", apperr.Kind(err)),
				slog.Any("error", err),
			)
			continue
		}
		result.MigratedCount++
	}

	service.facade.cache.InvalidateBadges(username)

	result.Success = result.FailedCount == 0
	result.Message = fmt.Sprintf("Migrated %d of %d badges for %s", result.MigratedCount, len(badges), username)
	logger.InfoContext(context, "migration_user_done",
		slog.Int("migrated", result.MigratedCount),
		slog.Int("failed", result.FailedCount),
	)

	return result
}

func (service *MigrationService) resolveUserID(context context.Context, username string) (string, error) {
	context, cancel := service.facade.remoteContext(context)
	defer cancel()
	return service.facade.resolveUserID(context, username)
}

func (service *MigrationService) insertBadge(context context.Context, userID string, badge Badge) error {
	context, cancel := service.facade.remoteContext(context)
	defer cancel()
	return remoteError(service.facade.remote.InsertBadge(context, userID, badge))
}

// MigrateAllUsers migrates every locally stored user, in username order.
func (service *MigrationService) MigrateAllUsers(context context.Context) []MigrationResult {
	records := service.facade.local.GetAll(context)

	usernames := make([]string, 0, len(records))
	for username := range records {
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)

	results := make([]MigrationResult, 0, len(usernames))
	for _, username := range usernames {
		results = append(results, service.MigrateUserData(context, username))
	}
	return results
}

/*
VerifyMigration compares the local and remote badge counts of a user.

Description: Reads the remote store directly, bypassing the cache, and never
mutates state. Success means the counts are equal.

Parameters:
  - context: context.Context
  - rawUsername: string

Returns:
  - VerificationResult
*/
func (service *MigrationService) VerifyMigration(context context.Context, rawUsername string) VerificationResult {
	username, err := NormalizeUsername(rawUsername)
	if err != nil {
		return VerificationResult{Username: rawUsername, Message: err.Error()}
	}
	result := VerificationResult{Username: username}

	if service.facade.remote == nil {
		result.Message = apperr.NotConfigured("Remote").Message
		return result
	}

	result.LocalCount = len(service.facade.local.GetBadges(context, username))

	remoteCount, err := service.countRemote(context, username)
	if err != nil {
		service.logger.WarnContext(context, "migration_verify_failed",
			slog.String("username", username), slog.String("kind", apperr.Kind(err)), slog.Any("error", err))
		result.Message = fmt.Sprintf("Could not read remote badges for %s: %s", username, err.Error())
		return result
	}
	result.RemoteCount = remoteCount

	result.Success = result.LocalCount == result.RemoteCount
	if result.Success {
		result.Message = fmt.Sprintf("Verified %d badges for %s", result.LocalCount, username)
	} else {
		result.Message = fmt.Sprintf("Count mismatch for %s: %d local, %d remote", username, result.LocalCount, result.RemoteCount)
	}

	return result
}

func (service *MigrationService) countRemote(context context.Context, username string) (int, error) {
	context, cancel := service.facade.remoteContext(context)
	defer cancel()

	remote := service.facade.remote

	userID, found, err := remote.FindUserID(context, username)
	if err != nil {
		return 0, remoteError(err)
	}
	if !found {
		return 0, nil
	}

	badges, err := remote.ListBadges(context, userID)
	if err != nil {
		return 0, remoteError(err)
	}
	return len(badges), nil
}
