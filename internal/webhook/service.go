// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package webhook

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/events"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/apperr"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/clock"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/validate"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/pkg/pointer"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/pkg/uuid"
)

// Service implements subscription management.
type Service struct {
	repository Repository
	dispatcher *Dispatcher
	guard      TargetGuard
	publisher  events.Publisher
	clock      clock.Clock
	logger     *slog.Logger
}

// NewService constructs a new [Service].
func NewService(repository Repository, dispatcher *Dispatcher, guard TargetGuard, publisher events.Publisher, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		repository: repository,
		dispatcher: dispatcher,
		guard:      guard,
		publisher:  publisher,
		clock:      clk,
		logger:     logger,
	}
}

// List returns every subscription.
func (service *Service) List(ctx context.Context) ([]*Subscription, error) {
	return service.repository.List(ctx)
}

// Get returns one subscription.
func (service *Service) Get(ctx context.Context, id string) (*Subscription, error) {
	return service.repository.FindByID(ctx, id)
}

// Create validates and stores a new subscription.
func (service *Service) Create(ctx context.Context, input CreateInput) (*Subscription, error) {
	now := service.clock.Now().UTC()
	subscription := &Subscription{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(input.Name),
		URL:       strings.TrimSpace(input.URL),
		Secret:    input.Secret,
		IsActive:  pointer.Fallback(input.IsActive, true),
		Events:    input.Events,
		Headers:   input.Headers,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := service.check(ctx, subscription); err != nil {
		return nil, err
	}
	if err := service.repository.Create(ctx, subscription); err != nil {
		return nil, err
	}

	service.publish(ctx, events.WebhookCreated, subscription)
	return subscription, nil
}

// Update applies a partial change.
func (service *Service) Update(ctx context.Context, id string, patch Patch) (*Subscription, error) {
	subscription, err := service.repository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		subscription.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.URL != nil {
		subscription.URL = strings.TrimSpace(*patch.URL)
	}
	if patch.Secret != nil {
		subscription.Secret = *patch.Secret
	}
	if patch.Events != nil {
		subscription.Events = patch.Events
	}
	if patch.Headers != nil {
		subscription.Headers = patch.Headers
	}
	if patch.IsActive != nil {
		subscription.IsActive = *patch.IsActive
	}
	subscription.UpdatedAt = service.clock.Now().UTC()

	if err := service.check(ctx, subscription); err != nil {
		return nil, err
	}
	if err := service.repository.Update(ctx, subscription); err != nil {
		return nil, err
	}

	service.publish(ctx, events.WebhookUpdated, subscription)
	return subscription, nil
}

// Delete removes a subscription.
func (service *Service) Delete(ctx context.Context, id string) error {
	subscription, err := service.repository.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := service.repository.Delete(ctx, id); err != nil {
		return err
	}

	service.publish(ctx, events.WebhookDeleted, subscription)
	return nil
}

// Test sends a synchronous "webhook.test" ping to the subscription, active or not.
func (service *Service) Test(ctx context.Context, id string) (*Delivery, error) {
	subscription, err := service.repository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return service.dispatcher.Send(ctx, subscription, events.WebhookTest.String(), map[string]any{
		"id":      subscription.ID,
		"name":    subscription.Name,
		"message": "This is a test delivery",
	})
}

// check validates the subscription and applies the target guard.
func (service *Service) check(ctx context.Context, subscription *Subscription) error {
	validator := &validate.Validator{}
	validator.Required(FieldName, subscription.Name).
		MaxLen(FieldName, subscription.Name, 100).
		Required(FieldURL, subscription.URL).
		HTTPURL(FieldURL, subscription.URL).
		MaxLen(FieldSecret, subscription.Secret, 255).
		Custom(FieldEvents, len(subscription.Events) == 0, "At least one event is required")

	for _, name := range subscription.Events {
		if _, err := events.ParseName(name); err != nil {
			validator.Custom(FieldEvents, true, "Invalid event name: "+name)
			break
		}
	}
	for name := range subscription.Headers {
		if strings.TrimSpace(name) == "" || strings.ContainsAny(name, " :\r\n") {
			validator.Custom(FieldHeaders, true, "Invalid header name: "+name)
			break
		}
	}
	if err := validator.Err(); err != nil {
		return err
	}

	if err := service.guard.Check(ctx, subscription.URL); err != nil {
		if errors.Is(err, ErrBlockedTarget) {
			return validate.RequiredError(FieldURL, "Target address is not allowed")
		}
		return apperr.BadRequest("Webhook URL host cannot be resolved")
	}

	if subscription.Headers == nil {
		subscription.Headers = map[string]string{}
	}
	return nil
}

// publish never includes the secret.
func (service *Service) publish(ctx context.Context, name events.Name, subscription *Subscription) {
	if service.publisher == nil {
		return
	}
	err := service.publisher.Publish(ctx, events.Event{
		Name:       name,
		ResourceID: subscription.ID,
		Payload: map[string]any{
			"id":        subscription.ID,
			"name":      subscription.Name,
			"url":       subscription.URL,
			"events":    subscription.Events,
			"is_active": subscription.IsActive,
		},
	})
	if err != nil {
		service.logger.ErrorContext(ctx, "event_publish_failed",
			slog.String("event", name.String()),
			slog.String("error", err.Error()),
		)
	}
}
