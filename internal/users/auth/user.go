// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

/*
Package auth implements the user identity and session management layer.

It defines the core domain entities (User, Session) and the logic for
registration, login, token refresh, logout and session administration.

# Architecture

  - Service: Orchestrates business logic (Register, Login, Refresh, sessions).
  - Repository: Abstracted interfaces with Postgres and in-memory implementations.
  - Security: bcrypt password records, HS256 access/refresh tokens bound to
    an opaque server-side session token.
*/
package auth

import (
	"time"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/sec"
)

// # Domain Entities

// User represents a registered member of the CMS.
//
// Users are never deleted; IsActive=false disables them.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Explicitly omitted from JSON for security.
	DisplayName  string     `json:"display_name"`
	Role         sec.Role   `json:"role"`
	IsActive     bool       `json:"is_active"`
	IsSuperuser  bool       `json:"is_superuser"`
	IsVerified   bool       `json:"is_verified"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Principal projects the user as a session principal.
func (u *User) Principal(sessionToken string) *sec.Principal {
	return &sec.Principal{
		UserID:       u.ID,
		Username:     u.Username,
		Email:        u.Email,
		DisplayName:  u.DisplayName,
		Role:         u.Role,
		IsActive:     u.IsActive,
		IsSuperuser:  u.IsSuperuser,
		IsVerified:   u.IsVerified,
		Kind:         sec.KindSession,
		SessionToken: sessionToken,
	}
}

// Session is a server-side login, addressed by an opaque random token.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is no longer usable at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// # Field Identifiers

// Field names for validation and request payloads in the authentication domain.
const (
	FieldUsername     = "username"
	FieldEmail        = "email"
	FieldPassword     = "password"
	FieldDisplayName  = "display_name"
	FieldLogin        = "login"
	FieldRefreshToken = "refresh_token"
)
