// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package webhook

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/middleware"
	requestutil "github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/request"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/respond"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/validate"
)

// Handler exposes webhook administration.
type Handler struct {
	service *Service
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the webhook endpoints behind [middleware.RequireAdmin].
//
// # Endpoints
//   - GET    /          : List subscriptions.
//   - POST   /          : Create a subscription.
//   - GET    /{id}      : Show a subscription.
//   - PATCH  /{id}      : Update a subscription.
//   - DELETE /{id}      : Delete a subscription.
//   - POST   /{id}/test : Send a ping and report the delivery.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAdmin)

	router.Get("/", handler.list)
	router.Post("/", handler.create)
	router.Get("/{id}", handler.get)
	router.Patch("/{id}", handler.update)
	router.Delete("/{id}", handler.delete)
	router.Post("/{id}/test", handler.test)

	return router
}

type createRequest struct {
	Name     string            `json:"name"`
	URL      string            `json:"url"`
	Secret   string            `json:"secret"`
	Events   []string          `json:"events"`
	Headers  map[string]string `json:"headers"`
	IsActive *bool             `json:"is_active"`
}

type updateRequest struct {
	Name     *string           `json:"name"`
	URL      *string           `json:"url"`
	Secret   *string           `json:"secret"`
	Events   []string          `json:"events"`
	Headers  map[string]string `json:"headers"`
	IsActive *bool             `json:"is_active"`
}

func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	subscriptions, err := handler.service.List(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, subscriptions)
}

func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var input createRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	subscription, err := handler.service.Create(request.Context(), CreateInput(input))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, subscription)
}

func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.PathID(request, "id", "Webhook")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	subscription, err := handler.service.Get(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, subscription)
}

func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	var input updateRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	id, err := requestutil.PathID(request, "id", "Webhook")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	subscription, err := handler.service.Update(request.Context(), id, Patch(input))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, subscription)
}

func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.PathID(request, "id", "Webhook")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Delete(request.Context(), id); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

/*
Test delivers a "webhook.test" ping synchronously.

POST /api/v1/webhooks/{id}/test

Response:
  - 200: Delivery: Outcome of the attempt (a failed delivery is still a 200)
  - 404: Subscription not found
*/
func (handler *Handler) test(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.PathID(request, "id", "Webhook")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	delivery, err := handler.service.Test(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, delivery)
}
