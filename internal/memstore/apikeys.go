// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package memstore

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/apperr"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/users/apikey"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/pkg/pointer"
)

// APIKeys implements [apikey.Repository].
type APIKeys struct {
	mu   sync.RWMutex
	byID map[string]*apikey.APIKey
}

// NewAPIKeys returns an empty key store.
func NewAPIKeys() *APIKeys {
	return &APIKeys{byID: make(map[string]*apikey.APIKey)}
}

func copyKey(key *apikey.APIKey) *apikey.APIKey {
	clone := *key
	clone.Permissions = slices.Clone(key.Permissions)
	clone.ExpiresAt = pointer.Clone(key.ExpiresAt)
	clone.LastUsedAt = pointer.Clone(key.LastUsedAt)
	return &clone
}

func (store *APIKeys) Create(_ context.Context, key *apikey.APIKey) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, existing := range store.byID {
		if existing.Fingerprint == key.Fingerprint {
			return errors.New("create_api_key: fingerprint collision")
		}
	}
	store.byID[key.ID] = copyKey(key)
	return nil
}

func (store *APIKeys) ListByUser(_ context.Context, userID string) ([]*apikey.APIKey, error) {
	store.mu.RLock()
	keys := make([]*apikey.APIKey, 0)
	for _, key := range store.byID {
		if key.UserID == userID {
			keys = append(keys, copyKey(key))
		}
	}
	store.mu.RUnlock()

	slices.SortFunc(keys, func(a, b *apikey.APIKey) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
	return keys, nil
}

func (store *APIKeys) FindByID(_ context.Context, userID, id string) (*apikey.APIKey, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	key, ok := store.byID[id]
	if !ok || key.UserID != userID {
		return nil, apperr.NotFound("API key")
	}
	return copyKey(key), nil
}

func (store *APIKeys) FindByFingerprint(_ context.Context, fingerprint string) (*apikey.APIKey, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	for _, key := range store.byID {
		if key.Fingerprint == fingerprint {
			return copyKey(key), nil
		}
	}
	return nil, apperr.NotFound("API key")
}

func (store *APIKeys) Update(_ context.Context, key *apikey.APIKey) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	existing, ok := store.byID[key.ID]
	if !ok || existing.UserID != key.UserID {
		return apperr.NotFound("API key")
	}
	updated := copyKey(existing)
	updated.Name = key.Name
	updated.Permissions = slices.Clone(key.Permissions)
	updated.IsActive = key.IsActive
	updated.ExpiresAt = key.ExpiresAt
	updated.UpdatedAt = key.UpdatedAt
	store.byID[key.ID] = updated
	return nil
}

func (store *APIKeys) Delete(_ context.Context, userID, id string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	key, ok := store.byID[id]
	if !ok || key.UserID != userID {
		return apperr.NotFound("API key")
	}
	delete(store.byID, id)
	return nil
}

func (store *APIKeys) TouchLastUsed(_ context.Context, id string, at time.Time) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if key, ok := store.byID[id]; ok {
		key.LastUsedAt = &at
	}
	return nil
}
