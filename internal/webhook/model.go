// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

/*
Package webhook delivers domain events to subscribed HTTP endpoints.

# Delivery

  - Each event is rendered once into a canonical JSON envelope.
  - The envelope is POSTed to every active subscription listening for the event.
  - When the subscription has a secret the body is signed with HMAC-SHA256.

Deliveries run on a bounded worker pool fed by a non-blocking queue; a full
queue drops the event rather than slowing down the request that produced it.
*/
package webhook

import (
	"slices"
	"time"
)

// Subscription is a registered webhook endpoint.
type Subscription struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	URL          string            `json:"url"`
	Secret       string            `json:"-"` // Write-only.
	IsActive     bool              `json:"is_active"`
	Events       []string          `json:"events"`
	Headers      map[string]string `json:"headers"`
	TotalCalls   int64             `json:"total_calls"`
	FailedCalls  int64             `json:"failed_calls"`
	LastCalledAt *time.Time        `json:"last_called_at"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Listens reports whether the subscription is active and wants event.
func (s *Subscription) Listens(event string) bool {
	return s.IsActive && slices.Contains(s.Events, event)
}

// CreateInput holds the fields accepted when registering a subscription.
type CreateInput struct {
	Name     string
	URL      string
	Secret   string
	Events   []string
	Headers  map[string]string
	IsActive *bool
}

// Patch holds the optional fields of an update. Nil means unchanged; an empty Secret clears it.
type Patch struct {
	Name     *string
	URL      *string
	Secret   *string
	Events   []string
	Headers  map[string]string
	IsActive *bool
}

// Delivery describes one attempt to deliver an event to one subscription.
type Delivery struct {
	ID             string        `json:"id"`
	SubscriptionID string        `json:"subscription_id"`
	Event          string        `json:"event"`
	URL            string        `json:"url"`
	Signature      string        `json:"signature,omitempty"`
	Attempt        int           `json:"attempt"`
	StatusCode     int           `json:"status_code,omitempty"`
	Error          string        `json:"error,omitempty"`
	Success        bool          `json:"success"`
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration_ns"`
}

// # Field Identifiers

const (
	FieldName    = "name"
	FieldURL     = "url"
	FieldSecret  = "secret"
	FieldEvents  = "events"
	FieldHeaders = "headers"
)
