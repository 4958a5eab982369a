// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/events"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/apperr"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/constants"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/ctxutil"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/respond"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/sec"
)

// Authenticator resolves a bearer credential (access token or API key) to a principal.
//
// Defining it here decouples the middleware from the gate implementation,
// allowing tests to inject a stub.
type Authenticator interface {
	Authenticate(ctx context.Context, credential string) (*sec.Principal, error)
}

// Authenticate extracts and verifies the credential from the Authorization header.
//
// # Flow
//  1. No 'Authorization' header: the request proceeds as anonymous.
//  2. Anything other than 'Bearer <credential>': 401.
//  3. The credential is resolved via [Authenticator]; any failure is 401.
//  4. The [*sec.Principal] is stored in the request context.
func Authenticate(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := strings.TrimSpace(request.Header.Get(constants.HeaderAuthorization))

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			scheme, credential, found := strings.Cut(authHeader, " ")
			credential = strings.TrimSpace(credential)
			if !found || !strings.EqualFold(scheme, "bearer") || credential == "" {
				respond.Error(writer, request, apperr.Unauthorized("Invalid authorization format"))
				return
			}

			// ── 3. Credential Resolution ──────────────────────────────────────
			principal, err := authenticator.Authenticate(request.Context(), credential)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			next.ServeHTTP(writer, request.WithContext(ctxutil.WithPrincipal(request.Context(), principal)))
		})
	}
}

// EventActor attributes events published while serving the request to its caller.
//
// Must be registered AFTER [Authenticate] so the user ID is known.
func EventActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		actor := events.Actor{
			IP:        RealIP(request),
			UserAgent: request.UserAgent(),
		}
		if principal := ctxutil.GetPrincipal(request.Context()); principal != nil {
			actor.UserID = principal.UserID
		}
		next.ServeHTTP(writer, request.WithContext(events.WithActor(request.Context(), actor)))
	})
}

// RequireAuth blocks requests that are not authenticated.
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return guard(func(*sec.Principal) bool { return true })(next)
}

// RequireVerified admits authenticated principals whose email is verified.
func RequireVerified(next http.Handler) http.Handler {
	return guard(func(principal *sec.Principal) bool {
		return principal.IsVerified || principal.IsAdmin()
	})(next)
}

// RequireAdmin admits admins and superusers. An API key additionally needs the "*" grant.
func RequireAdmin(next http.Handler) http.Handler {
	return guard(func(principal *sec.Principal) bool {
		return principal.CanAdminister()
	})(next)
}

// RequireRole admits admins always, otherwise only an exact role match.
//
// It implies [RequireAuth] so you don't need to mount both.
func RequireRole(role sec.Role) func(http.Handler) http.Handler {
	return guard(func(principal *sec.Principal) bool {
		return principal.HasRole(role)
	})
}

// RequirePermission checks a "resource:action" permission.
//
// API-key principals must hold it in their key. Session principals get it
// from their role.
func RequirePermission(permission string) func(http.Handler) http.Handler {
	return guard(func(principal *sec.Principal) bool {
		return principal.Can(permission)
	})
}

// guard returns 401 without a principal and 403 when allowed rejects it.
func guard(allowed func(*sec.Principal) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			principal := ctxutil.GetPrincipal(request.Context())

			// ── 1. Authentication Check ───────────────────────────────────────
			if principal == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			// ── 2. Authorization Check ────────────────────────────────────────
			if !allowed(principal) {
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
