// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package post

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/events"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/apperr"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/clock"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/sec"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/validate"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/pkg/pagination"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/pkg/slug"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/pkg/uuid"
)

// errNotOwner is returned when an author touches someone else's post.
var errNotOwner = apperr.Forbidden("You can only modify your own posts")

// Service implements post use cases.
type Service struct {
	repository Repository
	publisher  events.Publisher
	clock      clock.Clock
	logger     *slog.Logger
}

// NewService constructs a new [Service].
func NewService(repository Repository, publisher events.Publisher, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{repository: repository, publisher: publisher, clock: clk, logger: logger}
}

// Create stores a new post authored by principal.
func (service *Service) Create(ctx context.Context, principal *sec.Principal, input CreateInput) (*Post, error) {
	if input.Status == "" {
		input.Status = StatusDraft
	}
	if input.Slug == "" {
		input.Slug = slug.From(input.Title)
	}

	now := service.clock.Now().UTC()
	post := &Post{
		ID:        uuid.New(),
		Title:     strings.TrimSpace(input.Title),
		Slug:      input.Slug,
		Body:      input.Body,
		Status:    input.Status,
		AuthorID:  principal.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if post.Status == StatusPublished {
		post.PublishedAt = &now
	}

	if err := check(post); err != nil {
		return nil, err
	}
	if err := service.repository.Create(ctx, post); err != nil {
		return nil, err
	}

	service.publish(ctx, events.PostCreated, post)
	if post.Status == StatusPublished {
		service.publish(ctx, events.PostPublished, post)
	}
	return post, nil
}

// Get returns a post. Drafts are only visible to their author and to editors.
func (service *Service) Get(ctx context.Context, principal *sec.Principal, id string) (*Post, error) {
	post, err := service.repository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.Status != StatusPublished && !canManageAny(principal) && post.AuthorID != principal.UserID {
		return nil, apperr.NotFound(resourcePost)
	}
	return post, nil
}

// List returns a page of posts visible to principal.
func (service *Service) List(ctx context.Context, principal *sec.Principal, filter Filter, page pagination.Params) ([]*Post, int, error) {
	if !canManageAny(principal) {
		filter.VisibleTo = principal.UserID
	}
	return service.repository.List(ctx, filter, pagination.New(page.Page, page.PerPage))
}

// Update applies a partial change. Authors may only change their own posts.
func (service *Service) Update(ctx context.Context, principal *sec.Principal, id string, patch Patch) (*Post, error) {
	post, err := service.owned(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	wasPublished := post.Status == StatusPublished
	if patch.Title != nil {
		post.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Slug != nil {
		post.Slug = *patch.Slug
	}
	if patch.Body != nil {
		post.Body = *patch.Body
	}
	if patch.Status != nil {
		post.Status = *patch.Status
	}

	now := service.clock.Now().UTC()
	post.UpdatedAt = now
	published := !wasPublished && post.Status == StatusPublished
	if published {
		post.PublishedAt = &now
	}

	if err := check(post); err != nil {
		return nil, err
	}
	if err := service.repository.Update(ctx, post); err != nil {
		return nil, err
	}

	service.publish(ctx, events.PostUpdated, post)
	if published {
		service.publish(ctx, events.PostPublished, post)
	}
	return post, nil
}

// Delete removes a post. Authors may only delete their own posts.
func (service *Service) Delete(ctx context.Context, principal *sec.Principal, id string) error {
	post, err := service.owned(ctx, principal, id)
	if err != nil {
		return err
	}
	if err := service.repository.Delete(ctx, id); err != nil {
		return err
	}

	service.publish(ctx, events.PostDeleted, post)
	return nil
}

func (service *Service) owned(ctx context.Context, principal *sec.Principal, id string) (*Post, error) {
	post, err := service.repository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManageAny(principal) && post.AuthorID != principal.UserID {
		return nil, errNotOwner
	}
	return post, nil
}

func check(post *Post) error {
	validator := &validate.Validator{}
	validator.Required(FieldTitle, post.Title).
		MaxLen(FieldTitle, post.Title, 200).
		Required(FieldSlug, post.Slug).
		Slug(FieldSlug, post.Slug).
		MaxLen(FieldSlug, post.Slug, slug.MaxLength).
		OneOf(FieldStatus, string(post.Status), string(StatusDraft), string(StatusPublished))
	return validator.Err()
}

func (service *Service) publish(ctx context.Context, name events.Name, post *Post) {
	if service.publisher == nil {
		return
	}
	err := service.publisher.Publish(ctx, events.Event{
		Name:       name,
		ResourceID: post.ID,
		Payload: map[string]any{
			"id":           post.ID,
			"title":        post.Title,
			"slug":         post.Slug,
			"status":       post.Status,
			"author_id":    post.AuthorID,
			"published_at": formatTime(post.PublishedAt),
		},
	})
	if err != nil {
		service.logger.ErrorContext(ctx, "event_publish_failed",
			slog.String("event", name.String()),
			slog.String("error", err.Error()),
		)
	}
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
