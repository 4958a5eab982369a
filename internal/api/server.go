// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

/*
Package api mounts the domain handlers under /api/v1 behind the shared
middleware chain and owns the [http.Server] lifecycle.

Route guards (RequireAuth, RequireAdmin, RequirePermission) live with each
domain's Routes; this package only orders the global chain and the rate-limit
policies around authentication.
*/
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/audit"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/content/post"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/config"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/constants"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/metrics"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/middleware"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/users/apikey"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/users/auth"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/webhook"
)

// Server is the router plus the listener configuration.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// Handlers are the mounted route groups. Every field is required.
type Handlers struct {
	Liveness  http.HandlerFunc
	Readiness http.HandlerFunc

	Auth     *auth.Handler
	Sessions *auth.SessionHandler
	APIKeys  *apikey.Handler
	Audit    *audit.Handler
	Webhooks *webhook.Handler
	Posts    *post.Handler
}

// Dependencies are the cross-cutting collaborators of the middleware chain.
type Dependencies struct {
	// Authenticator resolves bearer credentials. Required.
	Authenticator middleware.Authenticator

	// Limiters holds the general, auth and api policies. Required.
	Limiters middleware.LimiterSource

	// Metrics instruments requests and serves /metrics. Nil disables both.
	Metrics *metrics.Metrics
}

// NewServer builds the router. Nothing listens until ListenAndServe.
func NewServer(cfg *config.Config, log *slog.Logger, deps Dependencies, h Handlers) *Server {
	r := chi.NewRouter()
	limiter := middleware.NewRateLimiter(deps.Limiters, deps.Metrics)

	// Order matters: the access log needs the client address and request id,
	// and recovery must sit inside the logger so a panic is still logged as a 500.
	r.Use(middleware.ClientIP(cfg.TrustedProxyPrefixes()))
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(middleware.PanicRecovery())
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(deps.Metrics.Instrument)

	// Probes stay outside /api/v1 and every rate-limit policy.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	// The general policy runs before authentication so a flood of bad
	// credentials is throttled too; the api policy needs the principal.
	r.Route("/api/v1", func(api chi.Router) {
		api.Use(limiter.Limit(constants.PolicyGeneral, middleware.ByClientIP))
		api.Use(middleware.Authenticate(deps.Authenticator))
		api.Use(middleware.EventActor)
		api.Use(limiter.Limit(constants.PolicyAPI, middleware.ByAPIKey))

		api.Mount("/auth", h.Auth.Routes(limiter.Limit(constants.PolicyAuth, middleware.ByClientIP)))
		api.Mount("/sessions", h.Sessions.Routes())
		api.Mount("/api-keys", h.APIKeys.Routes())
		api.Mount("/audit-logs", h.Audit.Routes())
		api.Mount("/webhooks", h.Webhooks.Routes())
		api.Mount("/posts", h.Posts.Routes())
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks until Shutdown, which it reports as
// [http.ErrServerClosed].
func (s *Server) ListenAndServe() error {
	s.log.Info("server_listening", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting connections and waits up to timeout for
// in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("api: shutdown: %w", err)
	}
	return nil
}
