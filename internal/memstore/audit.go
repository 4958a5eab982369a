// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package memstore

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/audit"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/apperr"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/pkg/pagination"
)

// AuditLog implements [audit.Repository]. Actors are resolved against users.
type AuditLog struct {
	mu      sync.RWMutex
	entries []audit.Entry
	users   *Users

	// FailWith, when set, makes Insert fail. Tests use it to exercise the failure path.
	FailWith error
}

// NewAuditLog returns an empty audit log joined to users. users may be nil.
func NewAuditLog(users *Users) *AuditLog {
	return &AuditLog{users: users}
}

func (store *AuditLog) Insert(_ context.Context, entry *audit.Entry) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.FailWith != nil {
		return store.FailWith
	}
	stored := *entry
	stored.Details = maps.Clone(entry.Details)
	stored.User = nil
	store.entries = append(store.entries, stored)
	return nil
}

func (store *AuditLog) List(_ context.Context, filter audit.Filter, params pagination.Params) ([]*audit.Entry, int, error) {
	store.mu.RLock()
	matches := make([]audit.Entry, 0)
	for _, entry := range store.entries {
		if matchesFilter(entry, filter) {
			matches = append(matches, entry)
		}
	}
	store.mu.RUnlock()

	slices.SortStableFunc(matches, func(a, b audit.Entry) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})

	window := pagination.Slice(matches, params)
	result := make([]*audit.Entry, 0, len(window))
	for _, entry := range window {
		result = append(result, store.resolve(entry))
	}
	return result, len(matches), nil
}

func (store *AuditLog) FindByID(_ context.Context, id string) (*audit.Entry, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	for _, entry := range store.entries {
		if entry.ID == id {
			return store.resolve(entry), nil
		}
	}
	return nil, apperr.NotFound("Audit log")
}

func (store *AuditLog) Stats(_ context.Context, from, to time.Time) (*audit.Stats, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	stats := &audit.Stats{ByAction: map[string]int64{}, ByResource: map[string]int64{}}
	users := make(map[string]struct{})
	for _, entry := range store.entries {
		if entry.CreatedAt.Before(from) || entry.CreatedAt.After(to) {
			continue
		}
		stats.TotalLogs++
		stats.ByAction[entry.Action]++
		stats.ByResource[entry.ResourceType]++
		if entry.UserID != nil {
			users[*entry.UserID] = struct{}{}
		}
	}
	stats.UniqueUsers = int64(len(users))
	return stats, nil
}

// Len returns the number of stored entries.
func (store *AuditLog) Len() int {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return len(store.entries)
}

func (store *AuditLog) resolve(entry audit.Entry) *audit.Entry {
	entry.Details = maps.Clone(entry.Details)
	if entry.UserID != nil && store.users != nil {
		if user, ok := store.users.lookup(*entry.UserID); ok {
			entry.User = &audit.UserRef{ID: user.ID, Username: user.Username, Email: user.Email}
		}
	}
	return &entry
}

func matchesFilter(entry audit.Entry, filter audit.Filter) bool {
	switch {
	case filter.UserID != "" && (entry.UserID == nil || *entry.UserID != filter.UserID):
		return false
	case filter.Action != "" && entry.Action != filter.Action:
		return false
	case filter.ResourceType != "" && entry.ResourceType != filter.ResourceType:
		return false
	case filter.From != nil && entry.CreatedAt.Before(*filter.From):
		return false
	case filter.To != nil && entry.CreatedAt.After(*filter.To):
		return false
	}
	return true
}
