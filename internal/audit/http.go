// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package audit

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/middleware"
	requestutil "github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/request"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/respond"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/validate"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/pkg/pagination"
)

const dateLayout = "2006-01-02"

// Handler exposes the admin audit endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the audit endpoints behind [middleware.RequireAdmin].
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAdmin)

	router.Get("/", handler.list)
	router.Get("/stats", handler.stats)
	router.Get("/{id}", handler.get)

	return router
}

/*
List returns audit entries, newest first.

GET /api/v1/audit-logs/?user_id=&action=&resource_type=&from=&to=&page=&per_page=

from and to accept RFC3339 or YYYY-MM-DD; a bare date in "to" covers the whole day.
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	query := request.URL.Query()

	filter := Filter{
		UserID:       strings.TrimSpace(query.Get(FieldUserID)),
		Action:       strings.TrimSpace(query.Get("action")),
		ResourceType: strings.TrimSpace(query.Get("resource_type")),
	}

	validator := &validate.Validator{}
	if filter.UserID != "" {
		validator.UUID(FieldUserID, filter.UserID)
	}

	var err error
	if filter.From, err = parseBound(query.Get(FieldFrom), false); err != nil {
		validator.Custom(FieldFrom, true, "Must be RFC3339 or YYYY-MM-DD")
	}
	if filter.To, err = parseBound(query.Get(FieldTo), true); err != nil {
		validator.Custom(FieldTo, true, "Must be RFC3339 or YYYY-MM-DD")
	}
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	page := pagination.FromRequest(request)
	entries, total, err := handler.service.List(request.Context(), filter, page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, entries, pagination.NewMeta(page, total))
}

/*
Stats returns aggregated counts for the trailing period.

GET /api/v1/audit-logs/stats?period_days=N (default 7, 1..365)
*/
func (handler *Handler) stats(writer http.ResponseWriter, request *http.Request) {
	periodDays, err := requestutil.QueryInt(request, FieldPeriodDays, DefaultPeriodDays)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	stats, err := handler.service.Stats(request.Context(), periodDays)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, stats)
}

func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.PathID(request, "id", "Audit log")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	entry, err := handler.service.Get(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, entry)
}

// parseBound reads an optional time bound. endOfDay extends a bare date to its last instant.
func parseBound(raw string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		parsed = parsed.UTC()
		return &parsed, nil
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		parsed = parsed.Add(24*time.Hour - time.Nanosecond)
	}
	return &parsed, nil
}
