// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package auth

import (
	"context"
	"time"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {

	/*
		FindByID returns the account with the given ID.

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(ctx context.Context, id string) (*User, error)

	/*
		FindByEmail returns the account with the given email (case-insensitive).
	*/
	FindByEmail(ctx context.Context, email string) (*User, error)

	/*
		FindByUsername returns the account with the given username (case-insensitive).
	*/
	FindByUsername(ctx context.Context, username string) (*User, error)

	/*
		Create persists a brand-new user account.

		Returns:
		  - error: apperr.Conflict when the username or email is taken
	*/
	Create(ctx context.Context, user *User) error

	// UpdatePassword replaces only the user's password hash.
	UpdatePassword(ctx context.Context, userID, newHash string) error

	// TouchLastLogin records a successful login time.
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error
}

// # Session Data Access

// SessionRepository defines the data access contract for login sessions.
//
// Listings skip expired rows; single-token lookups return them so the caller
// can delete them lazily.
type SessionRepository interface {

	// Create persists a new session. A duplicate token is an error.
	Create(ctx context.Context, session *Session) error

	// FindByToken returns the session, or apperr.NotFound when missing.
	FindByToken(ctx context.Context, token string) (*Session, error)

	// ListByUser returns the unexpired sessions of userID, newest first.
	ListByUser(ctx context.Context, userID string, now time.Time) ([]*Session, error)

	// Delete removes the token if it belongs to userID. It reports whether a row was removed.
	Delete(ctx context.Context, userID, token string) (bool, error)

	// DeleteAllForUser removes every session of userID except exceptToken (empty keeps none).
	DeleteAllForUser(ctx context.Context, userID, exceptToken string) (int64, error)

	// DeleteExpired physically removes sessions whose ExpiresAt is not after now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
