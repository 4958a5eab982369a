// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/middleware"
	requestutil "github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/request"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/respond"
)

// SessionHandler exposes the caller's own sessions.
type SessionHandler struct {
	authService *Service
}

// NewSessionHandler constructs a new [SessionHandler].
func NewSessionHandler(service *Service) *SessionHandler {
	return &SessionHandler{authService: service}
}

// Routes mounts the session endpoints. Every route requires an authenticated caller.
func (handler *SessionHandler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/", handler.list)
	router.Delete("/", handler.revokeAll)
	router.Delete("/{token}", handler.revoke)

	return router
}

// sessionView is a session as shown to its owner.
type sessionView struct {
	Token     string    `json:"token"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	IsCurrent bool      `json:"is_current"`
}

/*
List returns the caller's live sessions, newest first.

GET /api/v1/sessions/
*/
func (handler *SessionHandler) list(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sessions, err := handler.authService.ListSessions(request.Context(), principal.UserID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	views := make([]sessionView, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, sessionView{
			Token:     session.Token,
			IPAddress: session.IPAddress,
			UserAgent: session.UserAgent,
			CreatedAt: session.CreatedAt,
			ExpiresAt: session.ExpiresAt,
			IsCurrent: principal.SessionToken != "" && session.Token == principal.SessionToken,
		})
	}

	respond.OK(writer, views)
}

/*
Revoke deletes one of the caller's sessions.

DELETE /api/v1/sessions/{token}

Response:
  - 204: No Content
  - 404: Session not found or not owned by the caller
*/
func (handler *SessionHandler) revoke(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.RevokeSession(request.Context(), principal.UserID, requestutil.Param(request, "token")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
RevokeAll deletes every session of the caller.

DELETE /api/v1/sessions/?keep_current=true

With keep_current the session behind the current credential survives.
*/
func (handler *SessionHandler) revokeAll(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	except := ""
	if requestutil.QueryBool(request, "keep_current") {
		except = principal.SessionToken
	}

	count, err := handler.authService.RevokeAllSessions(request.Context(), principal.UserID, except)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{"revoked": count})
}
