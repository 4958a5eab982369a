// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package webhook

import (
	"context"
	"time"
)

// Repository defines the data access contract for webhook subscriptions.
type Repository interface {
	Create(ctx context.Context, subscription *Subscription) error
	List(ctx context.Context) ([]*Subscription, error)
	FindByID(ctx context.Context, id string) (*Subscription, error)

	// Update persists the configuration columns; counters are left alone.
	Update(ctx context.Context, subscription *Subscription) error
	Delete(ctx context.Context, id string) error

	// ListActiveForEvent returns active subscriptions whose event list contains event.
	ListActiveForEvent(ctx context.Context, event string) ([]*Subscription, error)

	/*
		RecordAttempt atomically counts one delivery attempt.

		total_calls always grows by one and last_called_at becomes at;
		failed_calls grows by one only when failed is true.
	*/
	RecordAttempt(ctx context.Context, id string, at time.Time, failed bool) error
}
