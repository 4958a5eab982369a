// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package ratelimit

import (
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/clock"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/constants"
)

// Limits holds the per-minute limit of each named policy.
type Limits struct {
	General int
	Auth    int
	API     int
}

// DefaultLimits returns the stock policy limits.
func DefaultLimits() Limits {
	return Limits{
		General: constants.DefaultLimitGeneral,
		Auth:    constants.DefaultLimitAuth,
		API:     constants.DefaultLimitAPI,
	}
}

func (l Limits) byPolicy() map[string]int {
	return map[string]int{
		constants.PolicyGeneral: l.General,
		constants.PolicyAuth:    l.Auth,
		constants.PolicyAPI:     l.API,
	}
}

// Registry maps policy names to limiters. It is immutable after construction.
type Registry struct {
	policies map[string]Limiter
}

// NewRegistry wraps an explicit policy table.
func NewRegistry(policies map[string]Limiter) *Registry {
	copied := make(map[string]Limiter, len(policies))
	for name, limiter := range policies {
		copied[name] = limiter
	}
	return &Registry{policies: copied}
}

// NewMemoryRegistry builds in-process sliding windows for every policy.
func NewMemoryRegistry(limits Limits, clk clock.Clock) *Registry {
	policies := make(map[string]Limiter)
	for name, limit := range limits.byPolicy() {
		policies[name] = NewSlidingWindow(limit, constants.RateLimitWindow, clk)
	}
	return &Registry{policies: policies}
}

// NewRedisRegistry builds Redis windows that fall back to memory on failure.
func NewRedisRegistry(client redis.Scripter, limits Limits, clk clock.Clock, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	policies := make(map[string]Limiter)
	for name, limit := range limits.byPolicy() {
		primary := NewRedisWindow(client, constants.RedisPrefixRateLimit, name, limit, constants.RateLimitWindow, clk)
		secondary := NewSlidingWindow(limit, constants.RateLimitWindow, clk)
		policies[name] = NewFallback(primary, secondary, clk, logger.With(slog.String("policy", name)))
	}
	return &Registry{policies: policies}
}

// Policy returns the limiter registered under name.
func (r *Registry) Policy(name string) (Limiter, bool) {
	if r == nil {
		return nil, false
	}
	limiter, ok := r.policies[name]
	return limiter, ok
}

// Prune evicts idle keys from every in-process window.
func (r *Registry) Prune() int {
	if r == nil {
		return 0
	}
	removed := 0
	for _, limiter := range r.policies {
		if pruner, ok := limiter.(Pruner); ok {
			removed += pruner.Prune()
		}
	}
	return removed
}
