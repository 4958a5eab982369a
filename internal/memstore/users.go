// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package memstore

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/apperr"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/users/auth"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/pkg/pointer"
)

// Users implements [auth.UserRepository].
type Users struct {
	mu   sync.RWMutex
	byID map[string]*auth.User
}

// NewUsers returns an empty user store.
func NewUsers() *Users {
	return &Users{byID: make(map[string]*auth.User)}
}

func copyUser(user *auth.User) *auth.User {
	clone := *user
	clone.LastLoginAt = pointer.Clone(user.LastLoginAt)
	return &clone
}

// Create rejects a username or email already taken, ignoring case.
func (store *Users) Create(_ context.Context, user *auth.User) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, existing := range store.byID {
		if existing.ID == user.ID ||
			strings.EqualFold(existing.Username, user.Username) ||
			strings.EqualFold(existing.Email, user.Email) {
			return apperr.Conflict("User already exists")
		}
	}
	store.byID[user.ID] = copyUser(user)
	return nil
}

func (store *Users) FindByID(_ context.Context, id string) (*auth.User, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	if user, ok := store.byID[id]; ok {
		return copyUser(user), nil
	}
	return nil, apperr.NotFound("User")
}

func (store *Users) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	return store.findBy(func(user *auth.User) bool { return strings.EqualFold(user.Email, email) })
}

func (store *Users) FindByUsername(_ context.Context, username string) (*auth.User, error) {
	return store.findBy(func(user *auth.User) bool { return strings.EqualFold(user.Username, username) })
}

func (store *Users) findBy(match func(*auth.User) bool) (*auth.User, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	for _, user := range store.byID {
		if match(user) {
			return copyUser(user), nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (store *Users) UpdatePassword(_ context.Context, userID, newHash string) error {
	return store.mutate(userID, func(user *auth.User) {
		user.PasswordHash = newHash
		user.UpdatedAt = time.Now().UTC()
	})
}

func (store *Users) TouchLastLogin(_ context.Context, userID string, at time.Time) error {
	return store.mutate(userID, func(user *auth.User) { user.LastLoginAt = &at })
}

// SetActive flips the active flag. Tests use it to deactivate accounts.
func (store *Users) SetActive(userID string, active bool) error {
	return store.mutate(userID, func(user *auth.User) { user.IsActive = active })
}

func (store *Users) mutate(userID string, change func(*auth.User)) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	user, ok := store.byID[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	change(user)
	return nil
}

// lookup returns the stored user without copying. Callers must hold no lock on store.
func (store *Users) lookup(id string) (auth.User, bool) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	user, ok := store.byID[id]
	if !ok {
		return auth.User{}, false
	}
	return *user, true
}
