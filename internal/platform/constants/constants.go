// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate-limit policy names, header names, and
cross-cutting keys that are shared between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Policy names and sliding window size.
  - Security: Token issuer, API key prefix, token lengths.
  - Webhooks: Outbound header names.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "spotex-cms-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 15 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// RateLimitWindow is the sliding window every named policy counts over.
	RateLimitWindow = 60 * time.Second

	// PolicyGeneral applies to every request, keyed by client IP.
	PolicyGeneral = "general"

	// PolicyAuth applies to credential endpoints (login, register, refresh).
	PolicyAuth = "auth"

	// PolicyAPI applies to API-key principals, keyed by key ID.
	PolicyAPI = "api"

	DefaultLimitGeneral = 60
	DefaultLimitAuth    = 5
	DefaultLimitAPI     = 100
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in JWTs.
	AuthIssuer = "spotex-cms"

	// SessionTokenLength is the byte length of an opaque session token (256 bits).
	SessionTokenLength = 32

	// APIKeySecretLength is the byte length of the random part of an API key (256 bits).
	APIKeySecretLength = 32

	// APIKeyPrefix marks bearer credentials that are API keys rather than JWTs.
	APIKeyPrefix = "scms_"

	// APIKeyDisplayPrefixLength is how many leading characters of a key are kept for display.
	APIKeyDisplayPrefixLength = 12
)

// # HTTP Headers

const (
	HeaderXRequestID     = "X-Request-ID"
	HeaderXRealIP        = "X-Real-IP"
	HeaderXForwardedFor  = "X-Forwarded-For"
	HeaderOrigin         = "Origin"
	HeaderAuthorization  = "Authorization"
	HeaderRetryAfter     = "Retry-After"
	HeaderRateLimit      = "X-RateLimit-Limit"
	HeaderRateRemaining  = "X-RateLimit-Remaining"
	HeaderContentType    = "Content-Type"
	HeaderUserAgent      = "User-Agent"
	HeaderWebhookSig     = "X-Webhook-Signature"
	HeaderWebhookEvent   = "X-Webhook-Event"
	HeaderWebhookDeliver = "X-Webhook-Delivery"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldMeta    = "meta"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldMessage = "message"
	FieldStatus  = "status"
	FieldChecks  = "checks"
)

// # Database Schemas

const (
	SchemaUsers   = "users"
	SchemaSystem  = "system"
	SchemaContent = "content"
)

// # Redis Prefixes

const (
	RedisPrefixRateLimit = "ratelimit:"
)
