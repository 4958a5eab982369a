// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package post_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/content/post"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/events"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/memstore"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/apperr"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/clock"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/sec"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/pkg/pagination"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/pkg/pointer"
)

var (
	alice  = &sec.Principal{UserID: "alice", Role: sec.RoleAuthor, Kind: sec.KindSession}
	bob    = &sec.Principal{UserID: "bob", Role: sec.RoleAuthor, Kind: sec.KindSession}
	editor = &sec.Principal{UserID: "ed", Role: sec.RoleEditor, Kind: sec.KindSession}
)

type published []events.Event

func (p *published) Publish(_ context.Context, event events.Event) error {
	*p = append(*p, event)
	return nil
}

func (p published) names() []events.Name {
	names := make([]events.Name, 0, len(p))
	for _, event := range p {
		names = append(names, event.Name)
	}
	return names
}

func newService(t *testing.T) (*post.Service, *published, *clock.Manual) {
	t.Helper()
	publisher := &published{}
	clk := clock.NewManual(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return post.NewService(memstore.NewPosts(), publisher, clk, logger), publisher, clk
}

func TestCreate_DefaultsAndEvents(t *testing.T) {
	service, publisher, clk := newService(t)
	ctx := context.Background()

	draft, err := service.Create(ctx, alice, post.CreateInput{Title: "Héllo World!", Body: "b"})
	require.NoError(t, err)
	assert.Equal(t, "hello-world", draft.Slug)
	assert.Equal(t, post.StatusDraft, draft.Status)
	assert.Equal(t, "alice", draft.AuthorID)
	assert.Nil(t, draft.PublishedAt)

	live, err := service.Create(ctx, alice, post.CreateInput{Title: "Live", Status: post.StatusPublished})
	require.NoError(t, err)
	require.NotNil(t, live.PublishedAt)
	assert.Equal(t, clk.Now(), *live.PublishedAt)

	assert.Equal(t, []events.Name{events.PostCreated, events.PostCreated, events.PostPublished}, publisher.names())
	assert.Equal(t, live.ID, (*publisher)[2].ResourceID)
}

func TestCreate_Rejects(t *testing.T) {
	service, _, _ := newService(t)
	ctx := context.Background()

	_, err := service.Create(ctx, alice, post.CreateInput{Title: "First", Slug: "same"})
	require.NoError(t, err)

	_, err = service.Create(ctx, bob, post.CreateInput{Title: "Second", Slug: "same"})
	assert.True(t, apperr.HasStatus(err, http.StatusConflict))

	for _, input := range []post.CreateInput{
		{Title: "  "},
		{Title: "ok", Slug: "Not A Slug"},
		{Title: "ok", Status: "archived"},
	} {
		_, err := service.Create(ctx, alice, input)
		assert.True(t, apperr.HasStatus(err, http.StatusBadRequest), input)
	}
}

func TestUpdate_Ownership(t *testing.T) {
	service, publisher, _ := newService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, alice, post.CreateInput{Title: "Mine"})
	require.NoError(t, err)

	_, err = service.Update(ctx, bob, created.ID, post.Patch{Title: pointer.To("Stolen")})
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusForbidden, appErr.HTTPStatus)
	assert.Equal(t, "You can only modify your own posts", appErr.Message)

	assert.True(t, apperr.HasStatus(service.Delete(ctx, bob, created.ID), http.StatusForbidden))

	status := post.StatusPublished
	updated, err := service.Update(ctx, editor, created.ID, post.Patch{Title: pointer.To("Edited"), Status: &status})
	require.NoError(t, err)
	assert.Equal(t, "Edited", updated.Title)
	require.NotNil(t, updated.PublishedAt)

	updated, err = service.Update(ctx, alice, created.ID, post.Patch{Body: pointer.To("again")})
	require.NoError(t, err)
	assert.Equal(t, "again", updated.Body)

	require.NoError(t, service.Delete(ctx, alice, created.ID))
	_, err = service.Get(ctx, alice, created.ID)
	assert.True(t, apperr.HasStatus(err, http.StatusNotFound))

	assert.Equal(t, []events.Name{
		events.PostCreated,
		events.PostUpdated, events.PostPublished,
		events.PostUpdated,
		events.PostDeleted,
	}, publisher.names())
}

func TestDraftVisibility(t *testing.T) {
	service, _, clk := newService(t)
	ctx := context.Background()

	draft, err := service.Create(ctx, alice, post.CreateInput{Title: "Secret draft"})
	require.NoError(t, err)
	clk.Advance(time.Minute)
	_, err = service.Create(ctx, bob, post.CreateInput{Title: "Public", Status: post.StatusPublished})
	require.NoError(t, err)

	_, err = service.Get(ctx, bob, draft.ID)
	assert.True(t, apperr.HasStatus(err, http.StatusNotFound))
	_, err = service.Get(ctx, alice, draft.ID)
	assert.NoError(t, err)
	_, err = service.Get(ctx, editor, draft.ID)
	assert.NoError(t, err)

	posts, total, err := service.List(ctx, bob, post.Filter{}, pagination.New(1, 20))
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, posts, 1)
	assert.Equal(t, "Public", posts[0].Title)

	posts, total, err = service.List(ctx, editor, post.Filter{}, pagination.New(1, 20))
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, "Public", posts[0].Title)

	posts, _, err = service.List(ctx, alice, post.Filter{Status: post.StatusDraft}, pagination.New(1, 20))
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, draft.ID, posts[0].ID)
}
