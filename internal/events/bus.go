// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/clock"
)

// Handler consumes published events.
type Handler interface {
	Handle(ctx context.Context, event Event)
}

// HandlerFunc adapts a function to [Handler].
type HandlerFunc func(ctx context.Context, event Event)

// Handle implements [Handler].
func (f HandlerFunc) Handle(ctx context.Context, event Event) { f(ctx, event) }

// Publisher is the narrow interface domain services depend on.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Bus delivers events to a handler set fixed at construction.
type Bus struct {
	sync   []Handler
	async  []Handler
	clock  clock.Clock
	logger *slog.Logger
}

// Option configures a [Bus].
type Option func(*Bus)

// WithSync appends synchronous handlers, run in the given order.
func WithSync(handlers ...Handler) Option {
	return func(b *Bus) { b.sync = append(b.sync, handlers...) }
}

// WithAsync appends asynchronous handlers. They must not block.
func WithAsync(handlers ...Handler) Option {
	return func(b *Bus) { b.async = append(b.async, handlers...) }
}

// WithClock sets the clock used to stamp events.
func WithClock(clk clock.Clock) Option {
	return func(b *Bus) { b.clock = clk }
}

// WithLogger sets the logger for handler panics.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) { b.logger = logger }
}

// NewBus builds a bus. The handler registry cannot change afterwards.
func NewBus(opts ...Option) *Bus {
	bus := &Bus{clock: clock.System{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(bus)
	}
	return bus
}

// Publish validates the name, stamps OccurredAt when unset, completes the
// actor from the context and runs every handler.
//
// Synchronous handlers see a context that keeps request values but ignores
// cancellation, so a disconnected client does not lose its audit entry.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	if !event.Name.Valid() {
		return fmt.Errorf("events: invalid event name %q", event.Name)
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = b.clock.Now().UTC()
	}
	event.Actor = event.Actor.merge(ActorFrom(ctx))

	detached := context.WithoutCancel(ctx)
	for _, handler := range b.sync {
		b.dispatch(detached, handler, event)
	}
	for _, handler := range b.async {
		b.dispatch(detached, handler, event)
	}
	return nil
}

// dispatch runs one handler and contains its panics.
func (b *Bus) dispatch(ctx context.Context, handler Handler, event Event) {
	defer func() {
		if recovered := recover(); recovered != nil {
			b.logger.ErrorContext(ctx, "event_handler_panic",
				slog.String("event", event.Name.String()),
				slog.Any("panic", recovered),
			)
		}
	}()
	handler.Handle(ctx, event)
}
