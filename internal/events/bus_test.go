// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package events_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/events"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/clock"
)

func TestParseName(t *testing.T) {
	valid := []string{"post.created", "order.refunded", "user.login", "store_item.updated"}
	for _, name := range valid {
		parsed, err := events.ParseName(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, parsed.String())
	}

	invalid := []string{"", "post", "post.", ".created", "Post.Created", "a.b.c", "post created"}
	for _, name := range invalid {
		_, err := events.ParseName(name)
		assert.Error(t, err, name)
	}
}

func TestName_ResourceAndAction(t *testing.T) {
	tests := []struct {
		name     events.Name
		resource string
		action   string
	}{
		{events.PostCreated, "post", "create"},
		{events.PostUpdated, "post", "update"},
		{events.PostDeleted, "post", "delete"},
		{events.PostPublished, "post", "publish"},
		{events.OrderRefunded, "order", "refund"},
		{events.UserLogin, "user", "login"},
		{events.UserLogout, "user", "logout"},
		{events.SessionRevoked, "session", "revoke"},
	}

	for _, tt := range tests {
		t.Run(tt.name.String(), func(t *testing.T) {
			assert.Equal(t, tt.resource, tt.name.Resource())
			assert.Equal(t, tt.action, tt.name.Action())
		})
	}
}

func TestBus_OrderAndDetachedContext(t *testing.T) {
	var (
		order    []string
		syncErr  error
		received events.Event
	)
	first := events.HandlerFunc(func(ctx context.Context, e events.Event) {
		order = append(order, "audit")
		syncErr = ctx.Err()
		received = e
	})
	second := events.HandlerFunc(func(context.Context, events.Event) {
		order = append(order, "second")
	})
	async := events.HandlerFunc(func(context.Context, events.Event) {
		order = append(order, "webhooks")
	})

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bus := events.NewBus(
		events.WithSync(first, second),
		events.WithAsync(async),
		events.WithClock(clock.NewManual(now)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := bus.Publish(ctx, events.Event{Name: events.PostCreated, ResourceID: "p1"})
	require.NoError(t, err)

	assert.Equal(t, []string{"audit", "second", "webhooks"}, order)
	assert.NoError(t, syncErr)
	assert.True(t, received.OccurredAt.Equal(now))
	assert.Equal(t, "p1", received.ResourceID)
}

func TestBus_RejectsInvalidName(t *testing.T) {
	called := false
	bus := events.NewBus(events.WithSync(events.HandlerFunc(func(context.Context, events.Event) {
		called = true
	})))

	err := bus.Publish(context.Background(), events.Event{Name: "nonsense"})
	assert.Error(t, err)
	assert.False(t, called)
}

func TestBus_HandlerPanicIsContained(t *testing.T) {
	reached := false
	bus := events.NewBus(
		events.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		events.WithSync(events.HandlerFunc(func(context.Context, events.Event) {
			panic("boom")
		})),
		events.WithAsync(events.HandlerFunc(func(context.Context, events.Event) {
			reached = true
		})),
	)

	assert.NotPanics(t, func() {
		_ = bus.Publish(context.Background(), events.Event{Name: events.UserLogin})
	})
	assert.True(t, reached)
}

func TestBus_ActorFromContext(t *testing.T) {
	var got events.Actor
	bus := events.NewBus(events.WithSync(events.HandlerFunc(func(_ context.Context, e events.Event) {
		got = e.Actor
	})))

	ctx := events.WithActor(context.Background(), events.Actor{UserID: "u-ctx", IP: "192.0.2.1", UserAgent: "curl/8"})

	require.NoError(t, bus.Publish(ctx, events.Event{Name: events.UserLogin, Actor: events.Actor{UserID: "u-explicit"}}))
	assert.Equal(t, events.Actor{UserID: "u-explicit", IP: "192.0.2.1", UserAgent: "curl/8"}, got)

	require.NoError(t, bus.Publish(context.Background(), events.Event{Name: events.UserLogin}))
	assert.Equal(t, events.Actor{}, got)
}
