// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

/*
Package post implements the blog post resource.

Authors manage their own posts; editors and administrators manage any post.
Every mutation is published on the event bus after it is stored.
*/
package post

import (
	"time"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/sec"
)

// Status is the publication state of a post.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Post is a piece of content.
type Post struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Body        string     `json:"body"`
	Status      Status     `json:"status"`
	AuthorID    string     `json:"author_id"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateInput holds the fields of a new post. An empty Slug is derived from Title.
type CreateInput struct {
	Title  string
	Slug   string
	Body   string
	Status Status
}

// Patch holds the optional fields of an update.
type Patch struct {
	Title  *string
	Slug   *string
	Body   *string
	Status *Status
}

// Filter narrows a listing.
type Filter struct {
	Status Status

	// VisibleTo limits drafts to those authored by this user. Empty shows every draft.
	VisibleTo string
}

// canManageAny reports whether principal may change posts it did not write.
func canManageAny(principal *sec.Principal) bool {
	return principal.IsAdmin() || principal.Role == sec.RoleEditor
}

const (
	FieldTitle  = "title"
	FieldSlug   = "slug"
	FieldBody   = "body"
	FieldStatus = "status"
)
