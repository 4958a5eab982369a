// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package memstore

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/content/post"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/apperr"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/pkg/pagination"
)

// Posts implements [post.Repository].
type Posts struct {
	mu   sync.RWMutex
	byID map[string]post.Post
}

// NewPosts returns an empty post store.
func NewPosts() *Posts {
	return &Posts{byID: make(map[string]post.Post)}
}

func (store *Posts) Create(_ context.Context, item *post.Post) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.slugTaken(item.Slug, item.ID) {
		return apperr.Conflict("Slug is already in use")
	}
	store.byID[item.ID] = *item
	return nil
}

func (store *Posts) FindByID(_ context.Context, id string) (*post.Post, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	item, ok := store.byID[id]
	if !ok {
		return nil, apperr.NotFound("Post")
	}
	return &item, nil
}

func (store *Posts) List(_ context.Context, filter post.Filter, params pagination.Params) ([]*post.Post, int, error) {
	store.mu.RLock()
	matches := make([]post.Post, 0)
	for _, item := range store.byID {
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		if filter.VisibleTo != "" && item.Status != post.StatusPublished && item.AuthorID != filter.VisibleTo {
			continue
		}
		matches = append(matches, item)
	}
	store.mu.RUnlock()

	slices.SortFunc(matches, func(a, b post.Post) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})

	window := pagination.Slice(matches, params)
	result := make([]*post.Post, 0, len(window))
	for i := range window {
		item := window[i]
		result = append(result, &item)
	}
	return result, len(matches), nil
}

func (store *Posts) Update(_ context.Context, item *post.Post) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, ok := store.byID[item.ID]; !ok {
		return apperr.NotFound("Post")
	}
	if store.slugTaken(item.Slug, item.ID) {
		return apperr.Conflict("Slug is already in use")
	}
	store.byID[item.ID] = *item
	return nil
}

func (store *Posts) Delete(_ context.Context, id string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, ok := store.byID[id]; !ok {
		return apperr.NotFound("Post")
	}
	delete(store.byID, id)
	return nil
}

func (store *Posts) slugTaken(slug, exceptID string) bool {
	for id, item := range store.byID {
		if id != exceptID && item.Slug == slug {
			return true
		}
	}
	return false
}
