// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package post_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/content/post"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/apperr"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/pkg/pagination"
)

var postRowColumns = []string{
	"id", "title", "slug", "body", "status", "authorid", "publishedat", "createdat", "updatedat",
}

func newMockRepository(t *testing.T) (*post.PostgresRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return post.NewPostgresRepository(mock), mock
}

func TestPostgresRepository_CreateSlugConflict(t *testing.T) {
	repository, mock := newMockRepository(t)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	entry := &post.Post{
		ID: "p1", Title: "Hello", Slug: "hello", Body: "x",
		Status: post.StatusDraft, AuthorID: "u1", CreatedAt: now, UpdatedAt: now,
	}

	mock.ExpectExec(`INSERT INTO content\.post \(id, title, slug, body, status, authorid, publishedat, createdat, updatedat\) VALUES`).
		WithArgs("p1", "Hello", "hello", "x", post.StatusDraft, "u1", entry.PublishedAt, now, now).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repository.Create(context.Background(), entry)
	assert.True(t, apperr.HasStatus(err, http.StatusConflict))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_FindByID(t *testing.T) {
	repository, mock := newMockRepository(t)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, title, .+ FROM content\.post WHERE id = \$1`).
		WithArgs("p1").
		WillReturnRows(pgxmock.NewRows(postRowColumns).
			AddRow("p1", "Hello", "hello", "x", post.StatusPublished, "u1", &now, now, now))

	found, err := repository.FindByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "hello", found.Slug)
	assert.Equal(t, post.StatusPublished, found.Status)
	require.NotNil(t, found.PublishedAt)
	assert.True(t, found.PublishedAt.Equal(now))

	mock.ExpectQuery(`SELECT id, title, .+ FROM content\.post WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err = repository.FindByID(context.Background(), "missing")
	assert.True(t, apperr.HasStatus(err, http.StatusNotFound))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_ListVisibleToAuthor(t *testing.T) {
	repository, mock := newMockRepository(t)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT count\(\*\) FROM content\.post WHERE \(status = \$1 OR authorid = \$2\)`).
		WithArgs(post.StatusPublished, "u1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`SELECT id, title, .+ FROM content\.post WHERE \(status = \$1 OR authorid = \$2\) ORDER BY createdat DESC LIMIT \$3 OFFSET \$4`).
		WithArgs(post.StatusPublished, "u1", 2, 2).
		WillReturnRows(pgxmock.NewRows(postRowColumns).
			AddRow("p3", "Draft", "draft", "", post.StatusDraft, "u1", nil, now, now))

	posts, total, err := repository.List(context.Background(), post.Filter{VisibleTo: "u1"}, pagination.New(2, 2))
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, posts, 1)
	assert.Equal(t, "p3", posts[0].ID)
	assert.Nil(t, posts[0].PublishedAt)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_UpdateAndDelete(t *testing.T) {
	repository, mock := newMockRepository(t)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	entry := &post.Post{ID: "p1", Title: "Hello", Slug: "taken", Status: post.StatusDraft, UpdatedAt: now}

	mock.ExpectExec(`UPDATE content\.post SET title = \$2, slug = \$3, body = \$4, status = \$5, publishedat = \$6, updatedat = \$7 WHERE id = \$1`).
		WithArgs("p1", "Hello", "taken", "", post.StatusDraft, entry.PublishedAt, now).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	err := repository.Update(context.Background(), entry)
	assert.True(t, apperr.HasStatus(err, http.StatusConflict))

	mock.ExpectExec(`UPDATE content\.post SET`).
		WithArgs("p1", "Hello", "taken", "", post.StatusDraft, entry.PublishedAt, now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	err = repository.Update(context.Background(), entry)
	assert.True(t, apperr.HasStatus(err, http.StatusNotFound))

	mock.ExpectExec(`DELETE FROM content\.post WHERE id = \$1`).
		WithArgs("p1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	err = repository.Delete(context.Background(), "p1")
	assert.True(t, apperr.HasStatus(err, http.StatusNotFound))

	require.NoError(t, mock.ExpectationsWereMet())
}
