// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/edubadge/internal/platform/apperr"
	"github.com/taibuivan/edubadge/internal/platform/database/schema"
	"github.com/taibuivan/edubadge/internal/platform/dberr"
	"github.com/taibuivan/edubadge/internal/platform/postgres"
	"github.com/taibuivan/edubadge/internal/platform/sec"
	"github.com/taibuivan/edubadge/pkg/uuid"
)

// # Remote Store

// PostgresRemoteStore implements [RemoteStore] using pgx.
type PostgresRemoteStore struct {
	pool       *pgxpool.Pool
	tokens     *sec.TokenService
	sessions   SessionRepository
	sessionTTL time.Duration
}

// NewRemoteStore creates a PostgreSQL-backed [RemoteStore]. sessions may be
// nil, in which case session tokens are issued but not tracked.
func NewRemoteStore(pool *pgxpool.Pool, tokens *sec.TokenService, sessions SessionRepository, sessionTTL time.Duration) *PostgresRemoteStore {
	return &PostgresRemoteStore{
		pool:       pool,
		tokens:     tokens,
		sessions:   sessions,
		sessionTTL: sessionTTL,
	}
}

var errInvalidCredentials = apperr.Auth("Invalid username or credential")

/*
ResolveOrCreateUser upserts the user row and returns its id.

Description: A single INSERT ... ON CONFLICT statement, so two simultaneous
calls with the same username serialize on the unique index and both return the
surviving row's id. An existing row only has its last-seen time touched.

Parameters:
  - context: context.Context
  - username: string

Returns:
  - string: User id
  - error: Validation or transport errors
*/
func (repository *PostgresRemoteStore) ResolveOrCreateUser(context context.Context, username string) (string, error) {
	if username == "" {
		return "", apperr.ValidationError("Username is required")
	}

	table := schema.ProfileUser
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s) VALUES ($1, $2, $3, $3)
		ON CONFLICT (%s) DO UPDATE SET %s = EXCLUDED.%s
		RETURNING %s`,
		table.Table, table.ID, table.Username, table.CreatedAt, table.LastSeenAt,
		table.Username, table.LastSeenAt, table.LastSeenAt,
		table.ID,
	)

	var userID string
	err := repository.pool.QueryRow(context, query, uuid.New(), username, time.Now().UTC()).Scan(&userID)
	if err != nil {
		return "", fmt.Errorf("postgres_profile_resolve_user_failed: %w", dberr.Wrap(err, "resolve user"))
	}

	return userID, nil
}

/*
SignInOrRegister checks the credential and issues a session token.

Description: Sign-in looks the user up and compares the bcrypt hash. A
missing user, or one created anonymously without a credential, counts as
"does not exist yet" and is registered with the given credential. A mismatch
on an existing credential is an AUTH_ERROR and is never retried as a
registration.

Parameters:
  - context: context.Context
  - username: string
  - credential: string

Returns:
  - RemoteSession: Session token bound to the user id
  - error: AUTH_ERROR, validation or transport errors
*/
func (repository *PostgresRemoteStore) SignInOrRegister(context context.Context, username, credential string) (RemoteSession, error) {
	if username == "" || credential == "" {
		return RemoteSession{}, apperr.ValidationError("Username and credential are required")
	}

	userID, err := repository.signIn(context, username, credential)
	if errors.Is(err, errNotRegistered) {
		userID, err = repository.register(context, username, credential)
	}
	if err != nil {
		return RemoteSession{}, err
	}

	token, err := repository.tokens.GenerateSessionToken(userID, username, repository.sessionTTL)
	if err != nil {
		return RemoteSession{}, apperr.Internal(err)
	}

	if repository.sessions != nil {
		if err := repository.sessions.Set(context, sec.HashToken(token), userID, repository.sessionTTL); err != nil {
			return RemoteSession{}, apperr.Transport(err)
		}
	}

	return RemoteSession{
		UserID:    userID,
		Token:     token,
		ExpiresAt: time.Now().Add(repository.sessionTTL),
	}, nil
}

var errNotRegistered = errors.New("profile: user has no credential yet")

func (repository *PostgresRemoteStore) signIn(context context.Context, username, credential string) (string, error) {
	table := schema.ProfileUser
	query := fmt.Sprintf(`SELECT %s, %s FROM %s WHERE %s = $1`,
		table.ID, table.CredentialHash, table.Table, table.Username,
	)

	var (
		userID string
		hash   *string
	)
	err := repository.pool.QueryRow(context, query, username).Scan(&userID, &hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", errNotRegistered
		}
		return "", fmt.Errorf("postgres_profile_sign_in_failed: %w", dberr.Wrap(err, "sign in"))
	}
	if hash == nil {
		return "", errNotRegistered
	}
	if !sec.CheckPasswordHash(credential, *hash) {
		return "", errInvalidCredentials
	}

	touch := fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1`, table.Table, table.LastSeenAt, table.ID)
	if _, err := repository.pool.Exec(context, touch, userID, time.Now().UTC()); err != nil {
		return "", fmt.Errorf("postgres_profile_touch_failed: %w", dberr.Wrap(err, "touch user"))
	}

	return userID, nil
}

// register claims the username with a credential. The conditional upsert only
// succeeds when no credential is set yet, so a concurrent registration for the
// same name loses with AUTH_ERROR instead of overwriting the winner's hash.
func (repository *PostgresRemoteStore) register(context context.Context, username, credential string) (string, error) {
	hash, err := sec.HashPassword(credential)
	if err != nil {
		return "", apperr.Internal(err)
	}

	table := schema.ProfileUser
	query := fmt.Sprintf(`
		INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (%s) DO UPDATE SET %s = EXCLUDED.%s, %s = EXCLUDED.%s
		WHERE %s.%s IS NULL
		RETURNING %s`,
		table.Table, strings.Join(table.Columns(), ", "),
		table.Username, table.CredentialHash, table.CredentialHash, table.LastSeenAt, table.LastSeenAt,
		table.Table, table.CredentialHash,
		table.ID,
	)

	var userID string
	err = repository.pool.QueryRow(context, query, uuid.New(), username, hash, time.Now().UTC()).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", errInvalidCredentials
		}
		return "", fmt.Errorf("postgres_profile_register_failed: %w", dberr.Wrap(err, "register user"))
	}

	return userID, nil
}

/*
SignOut forgets a session token.

Description: Only tokens this store signed are accepted; an expired token is
still forgotten.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - error: AUTH_ERROR for a foreign token, or transport errors
*/
func (repository *PostgresRemoteStore) SignOut(context context.Context, token string) error {
	if repository.sessions == nil || token == "" {
		return nil
	}
	if _, err := repository.tokens.VerifySessionToken(token); err != nil && !errors.Is(err, jwt.ErrTokenExpired) {
		return apperr.Auth("Unknown session token")
	}
	if err := repository.sessions.Delete(context, sec.HashToken(token)); err != nil {
		return apperr.Transport(err)
	}
	return nil
}

/*
InsertBadge appends one badge row.

Parameters:
  - context: context.Context
  - userID: string
  - badge: Badge

Returns:
  - error: Validation (unknown user, oversized field) or transport errors
*/
func (repository *PostgresRemoteStore) InsertBadge(context context.Context, userID string, badge Badge) error {
	earnedAt := badge.EarnedAt.UTC()
	if badge.EarnedAt.IsZero() {
		earnedAt = time.Now().UTC()
	}

	table := schema.ProfileBadge
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5)`,
		table.Table, strings.Join(table.Columns(), ", "),
	)

	_, err := repository.pool.Exec(context, query, uuid.New(), userID, badge.Name, badge.Emoji, earnedAt)
	if err != nil {
		return fmt.Errorf("postgres_profile_insert_badge_failed: %w", dberr.Wrap(err, "insert badge"))
	}

	return nil
}

/*
ListBadges returns a user's badges in earn order.

Description: Ties on earn time are broken by the time-ordered row id, which
preserves insertion order for badges earned within the same instant.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - []Badge: Ordered badges
  - error: Transport errors
*/
func (repository *PostgresRemoteStore) ListBadges(context context.Context, userID string) ([]Badge, error) {
	table := schema.ProfileBadge
	query := fmt.Sprintf(`SELECT %s, %s, %s FROM %s WHERE %s = $1 ORDER BY %s ASC, %s ASC`,
		table.Name, table.Emoji, table.EarnedAt, table.Table, table.UserID, table.EarnedAt, table.ID,
	)

	rows, err := repository.pool.Query(context, query, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres_profile_list_badges_failed: %w", dberr.Wrap(err, "list badges"))
	}
	defer rows.Close()

	badges := make([]Badge, 0)
	for rows.Next() {
		var badge Badge
		if err := rows.Scan(&badge.Name, &badge.Emoji, &badge.EarnedAt); err != nil {
			return nil, fmt.Errorf("postgres_profile_scan_badge_failed: %w", dberr.Wrap(err, "scan badge"))
		}
		badges = append(badges, badge)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_profile_list_badges_failed: %w", dberr.Wrap(err, "list badges"))
	}

	return badges, nil
}

/*
FindUserID looks a user up without creating it.

Parameters:
  - context: context.Context
  - username: string

Returns:
  - string: User id
  - bool: false when no such user exists
  - error: Transport errors
*/
func (repository *PostgresRemoteStore) FindUserID(context context.Context, username string) (string, bool, error) {
	table := schema.ProfileUser
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, table.ID, table.Table, table.Username)

	var userID string
	err := repository.pool.QueryRow(context, query, username).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("postgres_profile_find_user_failed: %w", dberr.Wrap(err, "find user"))
	}

	return userID, true, nil
}

// Ping reports whether the database answers.
func (repository *PostgresRemoteStore) Ping(context context.Context) error {
	if err := postgres.Ping(context, repository.pool); err != nil {
		return apperr.Transport(err)
	}
	return nil
}
