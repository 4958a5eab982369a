// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/clock"
)

// BreakerDuration is how long Fallback skips the primary after a failure.
const BreakerDuration = 30 * time.Second

// Fallback consults primary and switches to secondary while primary is failing.
//
// A primary error opens the breaker for [BreakerDuration]; during that time
// every decision comes from secondary. Callers never see the primary error.
type Fallback struct {
	primary   Limiter
	secondary Limiter
	clock     clock.Clock
	logger    *slog.Logger

	mu           sync.Mutex
	breakerUntil time.Time
}

// NewFallback wraps primary with secondary.
func NewFallback(primary, secondary Limiter, clk clock.Clock, logger *slog.Logger) *Fallback {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fallback{
		primary:   primary,
		secondary: secondary,
		clock:     clk,
		logger:    logger,
	}
}

// Limit implements [Limiter].
func (f *Fallback) Limit() int {
	return f.primary.Limit()
}

// Allow implements [Limiter].
func (f *Fallback) Allow(ctx context.Context, key string) (Decision, error) {
	now := f.clock.Now()

	if !f.breakerActive(now) {
		decision, err := f.primary.Allow(ctx, key)
		if err == nil {
			return decision, nil
		}
		f.tripBreaker(ctx, err, now)
	}

	return f.secondary.Allow(ctx, key)
}

// Prune forwards to the secondary limiter when it keeps local state.
func (f *Fallback) Prune() int {
	if pruner, ok := f.secondary.(Pruner); ok {
		return pruner.Prune()
	}
	return 0
}

func (f *Fallback) breakerActive(now time.Time) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.breakerUntil.IsZero() {
		return false
	}
	if now.Before(f.breakerUntil) {
		return true
	}
	f.breakerUntil = time.Time{}
	return false
}

func (f *Fallback) tripBreaker(ctx context.Context, err error, now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.breakerUntil.IsZero() && now.Before(f.breakerUntil) {
		return
	}
	f.breakerUntil = now.Add(BreakerDuration)
	f.logger.WarnContext(ctx, "rate_limit_redis_unavailable",
		slog.String("error", err.Error()),
		slog.Duration("breaker", BreakerDuration),
	)
}
