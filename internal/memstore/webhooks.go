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

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/apperr"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/webhook"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/pkg/pointer"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/pkg/slice"
)

// Webhooks implements [webhook.Repository].
type Webhooks struct {
	mu   sync.RWMutex
	byID map[string]*webhook.Subscription
}

// NewWebhooks returns an empty subscription store.
func NewWebhooks() *Webhooks {
	return &Webhooks{byID: make(map[string]*webhook.Subscription)}
}

func copySubscription(subscription *webhook.Subscription) *webhook.Subscription {
	clone := *subscription
	clone.Events = slices.Clone(subscription.Events)
	clone.Headers = maps.Clone(subscription.Headers)
	clone.LastCalledAt = pointer.Clone(subscription.LastCalledAt)
	return &clone
}

func (store *Webhooks) Create(_ context.Context, subscription *webhook.Subscription) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, exists := store.byID[subscription.ID]; exists {
		return apperr.Conflict("Webhook already exists")
	}
	store.byID[subscription.ID] = copySubscription(subscription)
	return nil
}

func (store *Webhooks) List(_ context.Context) ([]*webhook.Subscription, error) {
	return store.sorted(func(*webhook.Subscription) bool { return true }, true), nil
}

func (store *Webhooks) FindByID(_ context.Context, id string) (*webhook.Subscription, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	subscription, ok := store.byID[id]
	if !ok {
		return nil, apperr.NotFound("Webhook")
	}
	return copySubscription(subscription), nil
}

// Update keeps the stored counters.
func (store *Webhooks) Update(_ context.Context, subscription *webhook.Subscription) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	existing, ok := store.byID[subscription.ID]
	if !ok {
		return apperr.NotFound("Webhook")
	}
	updated := copySubscription(subscription)
	updated.TotalCalls = existing.TotalCalls
	updated.FailedCalls = existing.FailedCalls
	updated.LastCalledAt = existing.LastCalledAt
	updated.CreatedAt = existing.CreatedAt
	store.byID[subscription.ID] = updated
	return nil
}

func (store *Webhooks) Delete(_ context.Context, id string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, ok := store.byID[id]; !ok {
		return apperr.NotFound("Webhook")
	}
	delete(store.byID, id)
	return nil
}

func (store *Webhooks) ListActiveForEvent(_ context.Context, event string) ([]*webhook.Subscription, error) {
	return store.sorted(func(subscription *webhook.Subscription) bool { return subscription.Listens(event) }, false), nil
}

// RecordAttempt updates the counters under the store lock, so concurrent workers never lose an increment.
func (store *Webhooks) RecordAttempt(_ context.Context, id string, at time.Time, failed bool) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	subscription, ok := store.byID[id]
	if !ok {
		return nil
	}
	subscription.TotalCalls++
	if failed {
		subscription.FailedCalls++
	}
	subscription.LastCalledAt = &at
	return nil
}

func (store *Webhooks) sorted(keep func(*webhook.Subscription) bool, newestFirst bool) []*webhook.Subscription {
	store.mu.RLock()
	all := make([]*webhook.Subscription, 0, len(store.byID))
	for _, subscription := range store.byID {
		all = append(all, subscription)
	}
	result := slice.Map(slice.Filter(all, keep), copySubscription)
	store.mu.RUnlock()

	slices.SortFunc(result, func(a, b *webhook.Subscription) int {
		c := a.CreatedAt.Compare(b.CreatedAt)
		if c == 0 {
			c = strings.Compare(a.ID, b.ID)
		}
		if newestFirst {
			return -c
		}
		return c
	})
	if result == nil {
		result = []*webhook.Subscription{}
	}
	return result
}
