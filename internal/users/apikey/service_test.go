// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package apikey_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/memstore"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/apperr"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/clock"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/constants"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/sec"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/users/apikey"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/pkg/pointer"
)

const owner = "owner-1"

func newService(t *testing.T) (*apikey.Service, *memstore.APIKeys, *clock.Manual) {
	t.Helper()
	store := memstore.NewAPIKeys()
	clk := clock.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return apikey.NewService(store, sec.NewHasher(bcrypt.MinCost), nil, clk, logger), store, clk
}

func TestCreate_PlaintextIsReturnedOnce(t *testing.T) {
	service, store, _ := newService(t)
	ctx := context.Background()

	key, plaintext, err := service.Create(ctx, owner, apikey.CreateInput{
		Name:        "storefront",
		Permissions: []string{"posts:read", "POSTS:READ", "posts:write"},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(plaintext, constants.APIKeyPrefix))
	assert.Equal(t, plaintext[:constants.APIKeyDisplayPrefixLength], key.Prefix)
	assert.Equal(t, []string{"posts:read", "posts:write"}, key.Permissions)
	assert.Nil(t, key.ExpiresAt)

	stored, err := store.FindByID(ctx, owner, key.ID)
	require.NoError(t, err)
	assert.NotContains(t, stored.SecretHash, plaintext)
	assert.Equal(t, sec.HashToken(plaintext), stored.Fingerprint)

	listed, err := service.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	_, err = service.Get(ctx, "someone-else", key.ID)
	assert.True(t, apperr.HasStatus(err, http.StatusNotFound))
}

func TestCreate_Validation(t *testing.T) {
	service, _, _ := newService(t)
	ctx := context.Background()

	inputs := []apikey.CreateInput{
		{Name: "", Permissions: []string{"posts:read"}},
		{Name: "no-perms"},
		{Name: "bad-perm", Permissions: []string{"Posts Read"}},
		{Name: "too-long", Permissions: []string{"posts:read"}, ExpiresInDays: pointer.To(0)},
	}
	for _, input := range inputs {
		_, _, err := service.Create(ctx, owner, input)
		assert.True(t, apperr.HasStatus(err, http.StatusUnprocessableEntity) || apperr.HasStatus(err, http.StatusBadRequest), input.Name)
	}
}

func TestResolve(t *testing.T) {
	service, store, clk := newService(t)
	ctx := context.Background()

	key, plaintext, err := service.Create(ctx, owner, apikey.CreateInput{
		Name:          "ci",
		Permissions:   []string{"posts:read"},
		ExpiresInDays: pointer.To(1),
	})
	require.NoError(t, err)

	resolved, err := service.Resolve(ctx, plaintext)
	require.NoError(t, err)
	assert.Equal(t, key.ID, resolved.ID)
	require.NotNil(t, resolved.LastUsedAt)

	service.Wait()
	stored, err := store.FindByID(ctx, owner, key.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastUsedAt)
	assert.Equal(t, clk.Now(), *stored.LastUsedAt)

	// Expiry is exclusive: usable strictly before expires_at.
	clk.Advance(24 * time.Hour)
	_, err = service.Resolve(ctx, plaintext)
	assert.True(t, errors.Is(err, apikey.ErrInvalidKey))
}

func TestResolve_Rejections(t *testing.T) {
	service, _, _ := newService(t)
	ctx := context.Background()

	key, plaintext, err := service.Create(ctx, owner, apikey.CreateInput{Name: "ci", Permissions: []string{"posts:read"}})
	require.NoError(t, err)

	for _, candidate := range []string{
		"not-a-key",
		constants.APIKeyPrefix + "unknown",
		plaintext[:len(plaintext)-1] + "x",
	} {
		_, err := service.Resolve(ctx, candidate)
		assert.ErrorIs(t, err, apikey.ErrInvalidKey, candidate)
	}

	_, err = service.Update(ctx, owner, key.ID, apikey.Patch{IsActive: pointer.To(false)})
	require.NoError(t, err)
	_, err = service.Resolve(ctx, plaintext)
	assert.ErrorIs(t, err, apikey.ErrInvalidKey)

	_, err = service.Update(ctx, owner, key.ID, apikey.Patch{IsActive: pointer.To(true)})
	require.NoError(t, err)
	_, err = service.Resolve(ctx, plaintext)
	require.NoError(t, err)

	require.NoError(t, service.Revoke(ctx, owner, key.ID))
	_, err = service.Resolve(ctx, plaintext)
	assert.ErrorIs(t, err, apikey.ErrInvalidKey)
	service.Wait()
}

func TestUpdate(t *testing.T) {
	service, _, clk := newService(t)
	ctx := context.Background()

	key, _, err := service.Create(ctx, owner, apikey.CreateInput{Name: "ci", Permissions: []string{"posts:read"}})
	require.NoError(t, err)

	clk.Advance(time.Hour)
	updated, err := service.Update(ctx, owner, key.ID, apikey.Patch{
		Name:          pointer.To("deploy"),
		Permissions:   []string{"posts:*"},
		ExpiresInDays: pointer.To(30),
	})
	require.NoError(t, err)

	assert.Equal(t, "deploy", updated.Name)
	assert.Equal(t, []string{"posts:*"}, updated.Permissions)
	require.NotNil(t, updated.ExpiresAt)
	assert.Equal(t, clk.Now().Add(30*24*time.Hour), *updated.ExpiresAt)
	assert.Equal(t, key.Prefix, updated.Prefix)

	_, err = service.Update(ctx, "someone-else", key.ID, apikey.Patch{Name: pointer.To("x")})
	assert.True(t, apperr.HasStatus(err, http.StatusNotFound))
}

func TestAPIKey_Usable(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		key    apikey.APIKey
		usable bool
	}{
		{"active_no_expiry", apikey.APIKey{IsActive: true}, true},
		{"inactive", apikey.APIKey{IsActive: false}, false},
		{"future_expiry", apikey.APIKey{IsActive: true, ExpiresAt: pointer.To(now.Add(time.Second))}, true},
		{"expires_now", apikey.APIKey{IsActive: true, ExpiresAt: pointer.To(now)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.usable, tt.key.Usable(now))
		})
	}
}
