// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package apikey

import (
	"context"
	"time"
)

// Repository defines the data access contract for API keys.
//
// Every owner-scoped method treats a key belonging to someone else as missing.
type Repository interface {

	// Create persists a new key. A duplicate fingerprint is an error.
	Create(ctx context.Context, key *APIKey) error

	// ListByUser returns the owner's keys, newest first.
	ListByUser(ctx context.Context, userID string) ([]*APIKey, error)

	// FindByID returns one of the owner's keys.
	FindByID(ctx context.Context, userID, id string) (*APIKey, error)

	// FindByFingerprint returns the key with the given SHA-256 fingerprint regardless of owner.
	FindByFingerprint(ctx context.Context, fingerprint string) (*APIKey, error)

	// Update persists name, permissions, active flag, expiry and updated_at.
	Update(ctx context.Context, key *APIKey) error

	// Delete hard-deletes one of the owner's keys.
	Delete(ctx context.Context, userID, id string) error

	// TouchLastUsed stamps last_used_at.
	TouchLastUsed(ctx context.Context, id string, at time.Time) error
}
