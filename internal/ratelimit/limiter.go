// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

/*
Package ratelimit implements per-key sliding-window admission control.

Each named policy (general, auth, api) is a [Limiter] counting admissions
per key over the last 60 seconds. Limiters are built once at startup from
configuration and handed to the HTTP middleware through a [Registry]; no
limiter state lives in package variables.

Backends:

  - [SlidingWindow]: in-process, one mutex, injectable clock.
  - [RedisWindow]: Redis sorted set, shared by every API process.
  - [Fallback]: Redis first, in-process while Redis is unavailable.
*/
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter admits or rejects a request for a key.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
	Limit() int
}

// Pruner is implemented by limiters holding process-local state.
type Pruner interface {
	Prune() int
}
