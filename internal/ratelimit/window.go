// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/clock"
)

// SlidingWindow keeps the admission timestamps of every key inside the window.
//
// Hits older than now-window are evicted before each decision, so at most
// limit admissions are granted over any window-long interval.
type SlidingWindow struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	clock  clock.Clock
	hits   map[string][]time.Time
}

// NewSlidingWindow creates an in-process limiter. A nil clock means wall time.
func NewSlidingWindow(limit int, window time.Duration, clk clock.Clock) *SlidingWindow {
	if clk == nil {
		clk = clock.System{}
	}
	return &SlidingWindow{
		limit:  limit,
		window: window,
		clock:  clk,
		hits:   make(map[string][]time.Time),
	}
}

// Limit returns the number of admissions allowed per window.
func (w *SlidingWindow) Limit() int {
	return w.limit
}

// IsAllowed records an admission for key if the window has room.
func (w *SlidingWindow) IsAllowed(key string) bool {
	decision, _ := w.Allow(context.Background(), key)
	return decision.Allowed
}

// Allow implements [Limiter].
func (w *SlidingWindow) Allow(_ context.Context, key string) (Decision, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.clock.Now()
	hits := w.evict(key, now)

	if len(hits) >= w.limit {
		return Decision{
			Allowed:    false,
			Limit:      w.limit,
			Remaining:  0,
			RetryAfter: w.retryAfter(hits, now),
		}, nil
	}

	w.hits[key] = append(hits, now)
	return Decision{
		Allowed:   true,
		Limit:     w.limit,
		Remaining: w.limit - len(hits) - 1,
	}, nil
}

// Remaining reports how many admissions key has left in the current window.
func (w *SlidingWindow) Remaining(key string) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	remaining := w.limit - len(w.evict(key, w.clock.Now()))
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RetryAfter reports how long until key gets a free slot. Zero when it has one now.
func (w *SlidingWindow) RetryAfter(key string) time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.clock.Now()
	hits := w.evict(key, now)
	if len(hits) < w.limit {
		return 0
	}
	return w.retryAfter(hits, now)
}

// Prune drops every key whose window is empty and returns how many were removed.
func (w *SlidingWindow) Prune() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.clock.Now()
	removed := 0
	for key := range w.hits {
		if len(w.evict(key, now)) == 0 {
			removed++
		}
	}
	return removed
}

// Keys returns the number of keys currently tracked.
func (w *SlidingWindow) Keys() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.hits)
}

// evict removes hits older than now-window. Caller holds mu.
func (w *SlidingWindow) evict(key string, now time.Time) []time.Time {
	hits, ok := w.hits[key]
	if !ok {
		return nil
	}

	cutoff := now.Add(-w.window)
	first := 0
	for first < len(hits) && hits[first].Before(cutoff) {
		first++
	}

	if first == len(hits) {
		delete(w.hits, key)
		return nil
	}
	if first > 0 {
		hits = append(hits[:0], hits[first:]...)
		w.hits[key] = hits
	}
	return hits
}

// retryAfter is the time until the oldest hit leaves the window.
func (w *SlidingWindow) retryAfter(hits []time.Time, now time.Time) time.Duration {
	if len(hits) == 0 {
		return 0
	}
	wait := hits[0].Add(w.window).Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}
