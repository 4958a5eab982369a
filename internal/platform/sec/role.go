// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package sec

import (
	"fmt"
	"strings"
)

// # User Roles

// Role represents the authorization level granted to an account.
type Role string

const (
	// Unrestricted system access
	RoleAdmin Role = "admin"

	// Can manage all content regardless of authorship
	RoleEditor Role = "editor"

	// Can create and manage their own content
	RoleAuthor Role = "author"

	// Default role for registered readers
	RoleSubscriber Role = "subscriber"
)

// Roles lists every valid role in canonical order.
var Roles = []Role{RoleAdmin, RoleEditor, RoleAuthor, RoleSubscriber}

// ParseRole converts a wire string into a [Role], rejecting unknown values.
func ParseRole(raw string) (Role, error) {
	switch role := Role(strings.ToLower(strings.TrimSpace(raw))); role {
	case RoleAdmin, RoleEditor, RoleAuthor, RoleSubscriber:
		return role, nil
	default:
		return "", fmt.Errorf("sec: unknown role %q", raw)
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// String returns the canonical wire form.
func (r Role) String() string { return string(r) }
