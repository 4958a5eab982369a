// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/apperr"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/constants"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/ctxutil"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/respond"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/ratelimit"
)

// # Rate Limiting

// LimiterSource looks up the limiter of a named policy.
type LimiterSource interface {
	Policy(name string) (ratelimit.Limiter, bool)
}

// DenialRecorder is notified of every rejected request.
type DenialRecorder interface {
	RateLimited(policy string)
}

// KeyFunc extracts the rate-limit key of a request. ok=false skips the policy.
type KeyFunc func(request *http.Request) (key string, ok bool)

// ByClientIP keys a policy by the caller's IP address.
func ByClientIP(request *http.Request) (string, bool) {
	ip := RealIP(request)
	return ip, ip != ""
}

// ByAPIKey keys a policy by API key ID. Session and anonymous callers are skipped.
func ByAPIKey(request *http.Request) (string, bool) {
	principal := ctxutil.GetPrincipal(request.Context())
	if principal == nil || !principal.IsAPIKey() {
		return "", false
	}
	return principal.APIKeyID, principal.APIKeyID != ""
}

// RateLimiter turns the injected policy registry into HTTP middleware.
type RateLimiter struct {
	source   LimiterSource
	recorder DenialRecorder
}

// NewRateLimiter wires a registry and an optional denial recorder.
func NewRateLimiter(source LimiterSource, recorder DenialRecorder) *RateLimiter {
	return &RateLimiter{source: source, recorder: recorder}
}

// Limit enforces policy, keyed by keyFn.
//
// Admitted requests get X-RateLimit-Limit and X-RateLimit-Remaining.
// Rejected ones get 429 with Retry-After in whole seconds, at least 1.
// A limiter error lets the request through.
func (l *RateLimiter) Limit(policy string, keyFn KeyFunc) func(http.Handler) http.Handler {
	limiter, found := l.source.Policy(policy)

	return func(next http.Handler) http.Handler {
		if !found {
			return next
		}

		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			key, ok := keyFn(request)
			if !ok {
				next.ServeHTTP(writer, request)
				return
			}

			decision, err := limiter.Allow(request.Context(), key)
			if err != nil {
				ctxutil.GetLogger(request.Context()).WarnContext(request.Context(), "rate_limit_check_failed",
					slog.String("policy", policy),
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(writer, request)
				return
			}

			header := writer.Header()
			header.Set(constants.HeaderRateLimit, strconv.Itoa(decision.Limit))
			header.Set(constants.HeaderRateRemaining, strconv.Itoa(decision.Remaining))

			if !decision.Allowed {
				if l.recorder != nil {
					l.recorder.RateLimited(policy)
				}
				retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
				respond.Error(writer, request, apperr.RateLimited(retryAfter))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
