// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package sec

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/pkg/slice"
)

// PermissionAll grants every permission to an API key.
const PermissionAll = "*"

// Well-known permissions checked by route guards.
const (
	PermPostsRead  = "posts:read"
	PermPostsWrite = "posts:write"
)

// permissionPattern matches "resource:action" with lowercase identifiers, or "resource:*".
var permissionPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*:([a-z][a-z0-9_-]*|\*)$`)

// contentResources are the resources an editor fully controls.
var contentResources = []string{"posts", "pages", "categories", "media", "comments", "tags"}

// roleGrants lists the explicit permissions of the non-admin roles.
// Editors are handled through [contentResources].
var roleGrants = map[Role][]string{
	RoleAuthor: {
		"posts:read", "posts:write",
		"media:read", "media:write",
		"pages:read", "categories:read", "tags:read",
	},
	RoleSubscriber: {
		"posts:read", "pages:read", "categories:read", "tags:read",
	},
}

// ParsePermission normalizes and validates a permission token.
func ParsePermission(raw string) (string, error) {
	permission := strings.ToLower(strings.TrimSpace(raw))
	if permission == PermissionAll || permissionPattern.MatchString(permission) {
		return permission, nil
	}
	return "", fmt.Errorf("sec: invalid permission %q", raw)
}

// ParsePermissions validates every entry and removes duplicates while preserving order.
func ParsePermissions(raw []string) ([]string, error) {
	result := make([]string, 0, len(raw))
	for _, entry := range raw {
		permission, err := ParsePermission(entry)
		if err != nil {
			return nil, err
		}
		result = append(result, permission)
	}
	return slice.Unique(result), nil
}

// MatchPermission reports whether the granted set covers permission.
// A grant matches exactly, through "resource:*", or through "*".
func MatchPermission(granted []string, permission string) bool {
	resource, _, _ := strings.Cut(permission, ":")
	for _, grant := range granted {
		switch {
		case grant == PermissionAll, grant == permission:
			return true
		case strings.HasSuffix(grant, ":*") && strings.TrimSuffix(grant, ":*") == resource:
			return true
		}
	}
	return false
}

// RoleAllows reports whether a role implies permission.
func RoleAllows(role Role, permission string) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleEditor:
		resource, _, _ := strings.Cut(permission, ":")
		return slices.Contains(contentResources, resource)
	default:
		return MatchPermission(roleGrants[role], permission)
	}
}
