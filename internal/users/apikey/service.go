// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package apikey

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/events"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/apperr"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/clock"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/constants"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/sec"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/validate"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/pkg/uuid"
)

// ErrInvalidKey is returned by [Service.Resolve] for every rejected key.
var ErrInvalidKey = apperr.Unauthorized("Invalid or expired API key")

// touchTimeout bounds the detached last_used_at write.
const touchTimeout = 5 * time.Second

// Service implements API key issuance and resolution.
type Service struct {
	repository Repository
	hasher     *sec.Hasher
	publisher  events.Publisher
	clock      clock.Clock
	logger     *slog.Logger

	touches sync.WaitGroup
}

// NewService constructs a new [Service].
func NewService(repository Repository, hasher *sec.Hasher, publisher events.Publisher, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		repository: repository,
		hasher:     hasher,
		publisher:  publisher,
		clock:      clk,
		logger:     logger,
	}
}

/*
Create issues a new key for ownerID.

Returns:
  - *APIKey: Stored key (without plaintext)
  - string: The plaintext key, returned only here
  - error: ValidationError on bad input or storage errors
*/
func (service *Service) Create(ctx context.Context, ownerID string, input CreateInput) (*APIKey, string, error) {
	permissions, err := normalize(input.Name, input.Permissions, input.ExpiresInDays)
	if err != nil {
		return nil, "", err
	}

	secret, err := sec.GenerateSecureToken(constants.APIKeySecretLength)
	if err != nil {
		return nil, "", apperr.Internal(err)
	}
	plaintext := constants.APIKeyPrefix + secret

	secretHash, err := service.hasher.Hash(plaintext)
	if err != nil {
		return nil, "", apperr.Internal(fmt.Errorf("apikey_hash_failed: %w", err))
	}

	now := service.clock.Now().UTC()
	key := &APIKey{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(input.Name),
		Prefix:      plaintext[:constants.APIKeyDisplayPrefixLength],
		Fingerprint: sec.HashToken(plaintext),
		SecretHash:  secretHash,
		UserID:      ownerID,
		StoreID:     input.StoreID,
		Permissions: permissions,
		IsActive:    true,
		ExpiresAt:   expiry(now, input.ExpiresInDays),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := service.repository.Create(ctx, key); err != nil {
		if apperr.IsAppError(err) {
			return nil, "", err
		}
		return nil, "", apperr.Internal(err)
	}

	service.publish(ctx, events.APIKeyCreated, key)
	return key, plaintext, nil
}

// List returns the owner's keys, newest first.
func (service *Service) List(ctx context.Context, ownerID string) ([]*APIKey, error) {
	return service.repository.ListByUser(ctx, ownerID)
}

// Get returns one of the owner's keys.
func (service *Service) Get(ctx context.Context, ownerID, id string) (*APIKey, error) {
	return service.repository.FindByID(ctx, ownerID, id)
}

// Update applies a partial change to one of the owner's keys.
func (service *Service) Update(ctx context.Context, ownerID, id string, patch Patch) (*APIKey, error) {
	key, err := service.repository.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	name := key.Name
	if patch.Name != nil {
		name = *patch.Name
	}
	permissions := key.Permissions
	if patch.Permissions != nil {
		permissions = patch.Permissions
	}

	normalized, err := normalize(name, permissions, patch.ExpiresInDays)
	if err != nil {
		return nil, err
	}

	now := service.clock.Now().UTC()
	key.Name = strings.TrimSpace(name)
	key.Permissions = normalized
	if patch.IsActive != nil {
		key.IsActive = *patch.IsActive
	}
	if patch.ExpiresInDays != nil {
		key.ExpiresAt = expiry(now, patch.ExpiresInDays)
	}
	key.UpdatedAt = now

	if err := service.repository.Update(ctx, key); err != nil {
		return nil, err
	}

	service.publish(ctx, events.APIKeyUpdated, key)
	return key, nil
}

// Revoke hard-deletes one of the owner's keys.
func (service *Service) Revoke(ctx context.Context, ownerID, id string) error {
	key, err := service.repository.FindByID(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := service.repository.Delete(ctx, ownerID, id); err != nil {
		return err
	}

	service.publish(ctx, events.APIKeyDeleted, key)
	return nil
}

/*
Resolve authenticates a plaintext key.

Every rejection returns [ErrInvalidKey]. Storage failures other than a miss are
returned as-is so the caller can report a 500.
*/
func (service *Service) Resolve(ctx context.Context, plaintext string) (*APIKey, error) {
	if !strings.HasPrefix(plaintext, constants.APIKeyPrefix) {
		service.hasher.Equalize(plaintext)
		return nil, ErrInvalidKey
	}

	key, err := service.repository.FindByFingerprint(ctx, sec.HashToken(plaintext))
	if err != nil {
		if !apperr.HasStatus(err, http.StatusNotFound) {
			return nil, err
		}
		service.hasher.Equalize(plaintext)
		return nil, ErrInvalidKey
	}

	if !service.hasher.Verify(plaintext, key.SecretHash) {
		return nil, ErrInvalidKey
	}

	now := service.clock.Now().UTC()
	if !key.Usable(now) {
		return nil, ErrInvalidKey
	}

	service.touch(key.ID, now)
	key.LastUsedAt = &now
	return key, nil
}

// touch records last use in the background. Failures are only logged.
func (service *Service) touch(id string, at time.Time) {
	service.touches.Add(1)
	go func() {
		defer service.touches.Done()

		ctx, cancel := context.WithTimeout(context.Background(), touchTimeout)
		defer cancel()

		if err := service.repository.TouchLastUsed(ctx, id, at); err != nil {
			service.logger.Warn("apikey_touch_failed",
				slog.String("api_key_id", id),
				slog.String("error", err.Error()),
			)
		}
	}()
}

// Wait blocks until pending last_used_at writes finish. Used at shutdown.
func (service *Service) Wait() {
	service.touches.Wait()
}

func (service *Service) publish(ctx context.Context, name events.Name, key *APIKey) {
	if service.publisher == nil {
		return
	}
	err := service.publisher.Publish(ctx, events.Event{
		Name:       name,
		ResourceID: key.ID,
		Payload: map[string]any{
			"id":          key.ID,
			"name":        key.Name,
			"prefix":      key.Prefix,
			"permissions": key.Permissions,
			"is_active":   key.IsActive,
		},
	})
	if err != nil {
		service.logger.ErrorContext(ctx, "event_publish_failed",
			slog.String("event", name.String()),
			slog.String("error", err.Error()),
		)
	}
}

// normalize validates the mutable fields and returns the canonical permission set.
func normalize(name string, permissions []string, expiresInDays *int) ([]string, error) {
	validator := &validate.Validator{}
	validator.Required(FieldName, strings.TrimSpace(name)).
		MaxLen(FieldName, name, 100).
		Custom(FieldPermissions, len(permissions) == 0, "At least one permission is required").
		Permissions(FieldPermissions, permissions)
	if expiresInDays != nil {
		validator.Range(FieldExpiresInDays, *expiresInDays, 1, maxExpiresInDays)
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	normalized, err := sec.ParsePermissions(permissions)
	if err != nil {
		return nil, validate.RequiredError(FieldPermissions, err.Error())
	}
	return normalized, nil
}

func expiry(now time.Time, days *int) *time.Time {
	if days == nil {
		return nil
	}
	at := now.Add(time.Duration(*days) * 24 * time.Hour)
	return &at
}
