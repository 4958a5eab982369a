// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package auth_test

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

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/apperr"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/dberr"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/sec"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/users/auth"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

var sessionRowColumns = []string{"token", "userid", "ipaddress", "useragent", "createdat", "expiresat"}

func TestSessionRepository_Create(t *testing.T) {
	mock := newMock(t)
	repository := auth.NewSessionRepository(mock)
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	session := &auth.Session{Token: "tok", UserID: "u1", IPAddress: "10.0.0.1", UserAgent: "ua", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}

	mock.ExpectExec(`INSERT INTO users\.session \(token, userid, ipaddress, useragent, createdat, expiresat\) VALUES`).
		WithArgs("tok", "u1", "10.0.0.1", "ua", now, now.Add(time.Hour)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, repository.Create(ctx, session))

	// A token collision is not a client error.
	mock.ExpectExec(`INSERT INTO users\.session`).
		WithArgs("tok", "u1", "10.0.0.1", "ua", now, now.Add(time.Hour)).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	err := repository.Create(ctx, session)
	require.Error(t, err)
	assert.False(t, apperr.IsAppError(err))
	assert.True(t, dberr.IsUniqueViolation(err))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_FindByToken(t *testing.T) {
	mock := newMock(t)
	repository := auth.NewSessionRepository(mock)
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT token, userid, ipaddress, useragent, createdat, expiresat FROM users\.session WHERE token = \$1`).
		WithArgs("tok").
		WillReturnRows(pgxmock.NewRows(sessionRowColumns).AddRow("tok", "u1", "10.0.0.1", "ua", now, now.Add(time.Hour)))
	session, err := repository.FindByToken(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "u1", session.UserID)
	assert.Equal(t, now.Add(time.Hour), session.ExpiresAt)

	mock.ExpectQuery(`FROM users\.session WHERE token = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)
	_, err = repository.FindByToken(ctx, "missing")
	assert.True(t, apperr.HasStatus(err, http.StatusNotFound))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_DeleteAllForUser(t *testing.T) {
	mock := newMock(t)
	repository := auth.NewSessionRepository(mock)

	mock.ExpectExec(`DELETE FROM users\.session WHERE userid = \$1 AND \(\$2 = '' OR token <> \$2\)`).
		WithArgs("u1", "keep").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	count, err := repository.DeleteAllForUser(context.Background(), "u1", "keep")
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByEmailIgnoresCase(t *testing.T) {
	mock := newMock(t)
	repository := auth.NewUserRepository(mock)
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	columns := []string{"id", "username", "email", "passwordhash", "displayname", "role", "isactive", "issuperuser", "isverified", "lastloginat", "createdat", "updatedat"}
	mock.ExpectQuery(`FROM users\.account WHERE lower\(email\) = lower\(\$1\)`).
		WithArgs("Admin@Spotex.io").
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow("u1", "admin", "admin@spotex.io", "hash", "Admin", sec.RoleAdmin, true, true, true, (*time.Time)(nil), now, now))

	user, err := repository.FindByEmail(ctx, "Admin@Spotex.io")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.True(t, user.IsSuperuser)
	assert.Nil(t, user.LastLoginAt)

	mock.ExpectExec(`UPDATE users\.account SET passwordhash = \$2, updatedat = now\(\) WHERE id = \$1`).
		WithArgs("ghost", "hash").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	err = repository.UpdatePassword(ctx, "ghost", "hash")
	assert.True(t, apperr.HasStatus(err, http.StatusNotFound))

	require.NoError(t, mock.ExpectationsWereMet())
}
