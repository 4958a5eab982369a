// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package audit_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/audit"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/apperr"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/pkg/pagination"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/pkg/pointer"
)

var entryRowColumns = []string{
	"id", "userid", "action", "resourcetype", "resourceid", "ipaddress", "useragent", "details", "createdat",
	"id", "username", "email",
}

func newMockRepository(t *testing.T) (*audit.PostgresRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return audit.NewPostgresRepository(mock), mock
}

func TestPostgresRepository_Stats(t *testing.T) {
	repository, mock := newMockRepository(t)
	to := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	from := to.Add(-7 * 24 * time.Hour)

	mock.ExpectQuery(`SELECT count\(\*\), count\(DISTINCT userid\) FROM system\.auditlog WHERE createdat BETWEEN \$1 AND \$2`).
		WithArgs(from, to).
		WillReturnRows(pgxmock.NewRows([]string{"count", "count"}).AddRow(int64(4), int64(2)))
	mock.ExpectQuery(`SELECT action, count\(\*\) FROM system\.auditlog WHERE createdat BETWEEN \$1 AND \$2 GROUP BY action`).
		WithArgs(from, to).
		WillReturnRows(pgxmock.NewRows([]string{"action", "count"}).
			AddRow("create", int64(3)).
			AddRow("login", int64(1)))
	mock.ExpectQuery(`SELECT resourcetype, count\(\*\) FROM system\.auditlog WHERE createdat BETWEEN \$1 AND \$2 GROUP BY resourcetype`).
		WithArgs(from, to).
		WillReturnRows(pgxmock.NewRows([]string{"resourcetype", "count"}).
			AddRow("post", int64(3)).
			AddRow("user", int64(1)))

	stats, err := repository.Stats(context.Background(), from, to)
	require.NoError(t, err)
	assert.EqualValues(t, 4, stats.TotalLogs)
	assert.EqualValues(t, 2, stats.UniqueUsers)
	assert.Equal(t, map[string]int64{"create": 3, "login": 1}, stats.ByAction)
	assert.Equal(t, map[string]int64{"post": 3, "user": 1}, stats.ByResource)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_ListFiltersAndPages(t *testing.T) {
	repository, mock := newMockRepository(t)
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	filter := audit.Filter{UserID: "u1", Action: "create", From: &from}

	mock.ExpectQuery(`SELECT count\(\*\) FROM system\.auditlog a WHERE a\.userid = \$1 AND a\.action = \$2 AND a\.createdat >= \$3`).
		WithArgs("u1", "create", &from).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery(`SELECT a\.id, .+ FROM system\.auditlog a LEFT JOIN users\.account u ON u\.id = a\.userid WHERE a\.userid = \$1 AND a\.action = \$2 AND a\.createdat >= \$3 ORDER BY a\.createdat DESC, a\.id DESC LIMIT \$4 OFFSET \$5`).
		WithArgs("u1", "create", &from, 10, 10).
		WillReturnRows(pgxmock.NewRows(entryRowColumns).AddRow(
			"e1", pointer.To("u1"), "create", "post", pointer.To("p1"), "10.0.0.1", "curl/8",
			map[string]any{"title": "x"}, from,
			pointer.To("u1"), pointer.To("admin"), pointer.To("admin@example.com"),
		))

	entries, total, err := repository.List(context.Background(), filter, pagination.New(2, 10))
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	require.Len(t, entries, 1)
	assert.Equal(t, "p1", pointer.Val(entries[0].ResourceID))
	assert.Equal(t, "x", entries[0].Details["title"])
	require.NotNil(t, entries[0].User)
	assert.Equal(t, "admin", entries[0].User.Username)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_FindByIDWithoutActor(t *testing.T) {
	repository, mock := newMockRepository(t)
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM system\.auditlog a LEFT JOIN users\.account u ON u\.id = a\.userid WHERE a\.id = \$1`).
		WithArgs("e1").
		WillReturnRows(pgxmock.NewRows(entryRowColumns).AddRow(
			"e1", (*string)(nil), "login", "user", (*string)(nil), "", "",
			map[string]any{}, at,
			(*string)(nil), (*string)(nil), (*string)(nil),
		))
	entry, err := repository.FindByID(context.Background(), "e1")
	require.NoError(t, err)
	assert.Nil(t, entry.User)
	assert.Nil(t, entry.UserID)

	mock.ExpectQuery(`WHERE a\.id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)
	_, err = repository.FindByID(context.Background(), "missing")
	assert.True(t, apperr.HasStatus(err, http.StatusNotFound))

	require.NoError(t, mock.ExpectationsWereMet())
}
