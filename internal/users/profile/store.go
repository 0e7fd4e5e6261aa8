// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile

import (
	"context"
	"time"
)

// # Remote Data Access

// RemoteSession is the outcome of a credentialed login against the remote store.
type RemoteSession struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
}

// RemoteStore defines the contract of the network-accessible record service.
//
// Every method may fail with a TRANSPORT_ERROR (unreachable, timed out) or a
// VALIDATION_ERROR (rejected input). "Not found" is never an error.
type RemoteStore interface {

	/*
		ResolveOrCreateUser returns the id of the user, creating it when absent.

		Identical concurrent calls resolve to the same id and never create
		duplicates.

		Parameters:
		  - context: context.Context
		  - username: string (already normalized)

		Returns:
		  - string: Stable opaque user id
		  - error: Transport or validation failures
	*/
	ResolveOrCreateUser(context context.Context, username string) (string, error)

	/*
		SignInOrRegister establishes an authenticated remote session.

		Description: Attempts sign-in; an "invalid credentials" outcome caused by
		the account not existing yet registers it with the same credential.

		Parameters:
		  - context: context.Context
		  - username: string
		  - credential: string

		Returns:
		  - RemoteSession: User id and session token
		  - error: AUTH_ERROR when the credential is rejected, or transport failures
	*/
	SignInOrRegister(context context.Context, username, credential string) (RemoteSession, error)

	/*
		SignOut ends a remote session created by SignInOrRegister.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - error: Transport failures
	*/
	SignOut(context context.Context, token string) error

	/*
		InsertBadge appends a badge row for the user. A zero EarnedAt is
		replaced by the server time.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - badge: Badge

		Returns:
		  - error: Transport or validation failures
	*/
	InsertBadge(context context.Context, userID string, badge Badge) error

	/*
		ListBadges returns the user's badges ordered ascending by earn time.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - []Badge: Possibly empty, never nil on success
		  - error: Transport failures
	*/
	ListBadges(context context.Context, userID string) ([]Badge, error)

	/*
		FindUserID resolves a username without creating it.

		Parameters:
		  - context: context.Context
		  - username: string

		Returns:
		  - string: User id, empty when not found
		  - bool: Whether the user exists
		  - error: Transport failures only
	*/
	FindUserID(context context.Context, username string) (string, bool, error)

	// Ping reports whether the remote store is reachable.
	Ping(context context.Context) error
}

// # Volatile Data Access

// SessionRepository tracks live remote session tokens by digest.
type SessionRepository interface {

	/*
		Set records a session token digest for the user with a TTL.

		Parameters:
		  - context: context.Context
		  - tokenHash: string
		  - userID: string
		  - ttl: time.Duration

		Returns:
		  - error: Persistence failures
	*/
	Set(context context.Context, tokenHash, userID string, ttl time.Duration) error

	/*
		Delete removes a token digest.

		Parameters:
		  - context: context.Context
		  - tokenHash: string

		Returns:
		  - error: Persistence failures
	*/
	Delete(context context.Context, tokenHash string) error
}

// # Device-Local Data Access

// KeyValueStore is the persistent per-device key-value store behind [LocalStore].
type KeyValueStore interface {
	Get(context context.Context, key string) (value string, found bool, err error)
	Set(context context.Context, key, value string) error
}
