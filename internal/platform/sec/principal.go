// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package sec

import "slices"

// PrincipalKind tells how a principal authenticated.
type PrincipalKind string

const (
	KindSession PrincipalKind = "session"
	KindAPIKey  PrincipalKind = "api_key"
)

// Principal is the authenticated identity behind a request.
//
// Session principals inherit every permission implied by their role.
// API-key principals are limited to the key's permission set.
type Principal struct {
	UserID      string        `json:"id"`
	Username    string        `json:"username"`
	Email       string        `json:"email"`
	DisplayName string        `json:"display_name"`
	Role        Role          `json:"role"`
	IsActive    bool          `json:"is_active"`
	IsSuperuser bool          `json:"is_superuser"`
	IsVerified  bool          `json:"is_verified"`
	Kind        PrincipalKind `json:"auth_kind"`

	SessionToken string   `json:"-"`
	APIKeyID     string   `json:"api_key_id,omitempty"`
	Permissions  []string `json:"permissions,omitempty"`
}

// IsAdmin reports whether the principal holds admin rights. Superusers always do.
func (p *Principal) IsAdmin() bool {
	return p.Role == RoleAdmin || p.IsSuperuser
}

// IsAPIKey reports whether the principal authenticated with an API key.
func (p *Principal) IsAPIKey() bool {
	return p.Kind == KindAPIKey
}

// HasRole admits admins always, otherwise requires an exact role match.
func (p *Principal) HasRole(role Role) bool {
	return p.IsAdmin() || p.Role == role
}

// Can reports whether the principal holds permission.
func (p *Principal) Can(permission string) bool {
	if p.IsAPIKey() {
		return MatchPermission(p.Permissions, permission)
	}
	if p.IsAdmin() {
		return true
	}
	return RoleAllows(p.Role, permission)
}

// CanAdminister reports whether the principal may use admin-only endpoints.
// An API key needs an admin owner and the "*" grant.
func (p *Principal) CanAdminister() bool {
	if !p.IsAdmin() {
		return false
	}
	if p.IsAPIKey() {
		return slices.Contains(p.Permissions, PermissionAll)
	}
	return true
}
