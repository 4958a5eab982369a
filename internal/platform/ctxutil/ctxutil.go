// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

/*
Package ctxutil stores per-request values in a [context.Context].

Keys are unexported, so only these accessors can read or write them.
*/
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/sec"
)

type key int

const (
	keyRequestID key = iota
	keyLogger
	keyPrincipal
	keyPrincipalSlot
	keyClientIP
)

// WithRequestID attaches the X-Request-ID correlation value.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

// GetRequestID returns the request ID, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(keyRequestID).(string)
	return id
}

// WithClientIP attaches the resolved caller address.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, keyClientIP, ip)
}

// GetClientIP returns the caller address, or "".
func GetClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(keyClientIP).(string)
	return ip
}

// WithLogger attaches the per-request logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, keyLogger, logger)
}

// GetLogger returns the per-request logger, falling back to [slog.Default].
func GetLogger(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(keyLogger).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// principalSlot lets an outer layer see the principal an inner layer resolved.
type principalSlot struct {
	principal *sec.Principal
}

/*
WithPrincipalSlot prepares ctx to report the principal back outward.

The returned function yields whatever principal [WithPrincipal] stored on a
descendant context, or nil. The request logger uses it to attribute the
access log line after the handler chain has run.
*/
func WithPrincipalSlot(ctx context.Context) (context.Context, func() *sec.Principal) {
	slot := &principalSlot{}
	return context.WithValue(ctx, keyPrincipalSlot, slot), func() *sec.Principal { return slot.principal }
}

// WithPrincipal attaches the authenticated principal and fills the enclosing slot, if any.
func WithPrincipal(ctx context.Context, principal *sec.Principal) context.Context {
	if slot, ok := ctx.Value(keyPrincipalSlot).(*principalSlot); ok {
		slot.principal = principal
	}
	return context.WithValue(ctx, keyPrincipal, principal)
}

// GetPrincipal returns the caller, or nil for anonymous requests.
func GetPrincipal(ctx context.Context) *sec.Principal {
	principal, _ := ctx.Value(keyPrincipal).(*sec.Principal)
	return principal
}
