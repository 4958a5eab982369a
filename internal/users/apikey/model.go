// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

/*
Package apikey manages long-lived programmatic credentials.

A key is shown in plaintext exactly once, at creation. At rest only three
derived values are kept:

  - Prefix: the first characters of the key, for display.
  - Fingerprint: SHA-256 of the key, unique, used to find the row.
  - SecretHash: bcrypt of the key, compared after the lookup.

Resolution is a fingerprint lookup followed by one bcrypt comparison, and an
unknown fingerprint still pays for a comparison against a dummy hash.
*/
package apikey

import (
	"time"
)

// APIKey is a stored key. The plaintext is never part of it.
type APIKey struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Prefix      string     `json:"prefix"`
	Fingerprint string     `json:"-"`
	SecretHash  string     `json:"-"`
	UserID      string     `json:"user_id"`
	StoreID     *string    `json:"store_id,omitempty"`
	Permissions []string   `json:"permissions"`
	IsActive    bool       `json:"is_active"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Usable reports whether the key may authenticate at now.
func (k *APIKey) Usable(now time.Time) bool {
	return k.IsActive && (k.ExpiresAt == nil || now.Before(*k.ExpiresAt))
}

// CreateInput holds the fields accepted when issuing a key.
type CreateInput struct {
	Name          string
	Permissions   []string
	StoreID       *string
	ExpiresInDays *int
}

// Patch holds the optional fields of an update. Nil means unchanged.
type Patch struct {
	Name          *string
	Permissions   []string
	IsActive      *bool
	ExpiresInDays *int
}

// # Field Identifiers

const (
	FieldName          = "name"
	FieldPermissions   = "permissions"
	FieldStoreID       = "store_id"
	FieldExpiresInDays = "expires_in_days"
	FieldIsActive      = "is_active"
)

// maxExpiresInDays caps key lifetime at ten years.
const maxExpiresInDays = 3650
