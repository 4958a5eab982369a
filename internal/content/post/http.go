// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package post

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/middleware"
	requestutil "github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/request"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/respond"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/sec"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/validate"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/pkg/pagination"
)

// Handler exposes the post endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the post endpoints. Reads need posts:read, writes posts:write.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequirePermission(sec.PermPostsRead))
		r.Get("/", handler.list)
		r.Get("/{id}", handler.get)
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequirePermission(sec.PermPostsWrite))
		r.Post("/", handler.create)
		r.Patch("/{id}", handler.update)
		r.Delete("/{id}", handler.delete)
	})

	return router
}

type createRequest struct {
	Title  string `json:"title"`
	Slug   string `json:"slug"`
	Body   string `json:"body"`
	Status Status `json:"status"`
}

type updateRequest struct {
	Title  *string `json:"title"`
	Slug   *string `json:"slug"`
	Body   *string `json:"body"`
	Status *Status `json:"status"`
}

func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	filter := Filter{Status: Status(request.URL.Query().Get(FieldStatus))}
	if filter.Status != "" {
		validator := &validate.Validator{}
		if err := validator.OneOf(FieldStatus, string(filter.Status), string(StatusDraft), string(StatusPublished)).Err(); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	page := pagination.FromRequest(request)
	posts, total, err := handler.service.List(request.Context(), principal, filter, page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Paginated(writer, posts, pagination.NewMeta(page, total))
}

func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.PathID(request, "id", "Post")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	post, err := handler.service.Get(request.Context(), principal, id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, post)
}

func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input createRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	post, err := handler.service.Create(request.Context(), principal, CreateInput(input))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, post)
}

func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	id, err := requestutil.PathID(request, "id", "Post")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	post, err := handler.service.Update(request.Context(), principal, id, Patch(input))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, post)
}

func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.PathID(request, "id", "Post")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Delete(request.Context(), principal, id); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
