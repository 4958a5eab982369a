// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package apikey

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/middleware"
	requestutil "github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/request"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/respond"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/validate"
)

// Handler exposes the administrative API key endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the key endpoints behind [middleware.RequireAdmin].
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAdmin)

	router.Get("/", handler.list)
	router.Post("/", handler.create)
	router.Get("/{id}", handler.get)
	router.Patch("/{id}", handler.update)
	router.Delete("/{id}", handler.revoke)

	return router
}

type createRequest struct {
	Name          string   `json:"name"`
	Permissions   []string `json:"permissions"`
	StoreID       *string  `json:"store_id"`
	ExpiresInDays *int     `json:"expires_in_days"`
}

type updateRequest struct {
	Name          *string  `json:"name"`
	Permissions   []string `json:"permissions"`
	IsActive      *bool    `json:"is_active"`
	ExpiresInDays *int     `json:"expires_in_days"`
}

// createdKey is the only representation that carries the plaintext.
type createdKey struct {
	*APIKey
	Key string `json:"key"`
}

func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	keys, err := handler.service.List(request.Context(), principal.UserID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, keys)
}

/*
Create issues a new key for the caller.

POST /api/v1/api-keys/

Response:
  - 201: createdKey: The key and, this once, its plaintext
  - 400: Validation failure (name, permissions, expires_in_days)
*/
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

	if input.StoreID != nil {
		validator := &validate.Validator{}
		if err := validator.UUID(FieldStoreID, *input.StoreID).Err(); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	key, plaintext, err := handler.service.Create(request.Context(), principal.UserID, CreateInput{
		Name:          input.Name,
		Permissions:   input.Permissions,
		StoreID:       input.StoreID,
		ExpiresInDays: input.ExpiresInDays,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, createdKey{APIKey: key, Key: plaintext})
}

func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.PathID(request, "id", "API key")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	key, err := handler.service.Get(request.Context(), principal.UserID, id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, key)
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

	id, err := requestutil.PathID(request, "id", "API key")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	key, err := handler.service.Update(request.Context(), principal.UserID, id, Patch{
		Name:          input.Name,
		Permissions:   input.Permissions,
		IsActive:      input.IsActive,
		ExpiresInDays: input.ExpiresInDays,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, key)
}

func (handler *Handler) revoke(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.PathID(request, "id", "API key")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Revoke(request.Context(), principal.UserID, id); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
