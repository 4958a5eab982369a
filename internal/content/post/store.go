// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package post

import (
	"context"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/pkg/pagination"
)

// Repository defines the data access contract for posts.
type Repository interface {

	// Create stores a post. A duplicate slug is an apperr.Conflict.
	Create(ctx context.Context, post *Post) error

	FindByID(ctx context.Context, id string) (*Post, error)

	// List returns a page of posts, newest first, and the total match count.
	List(ctx context.Context, filter Filter, page pagination.Params) ([]*Post, int, error)

	// Update writes every mutable column. A duplicate slug is an apperr.Conflict.
	Update(ctx context.Context, post *Post) error

	Delete(ctx context.Context, id string) error
}
