// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package auth_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/events"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/memstore"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/apperr"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/clock"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/constants"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/sec"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/users/auth"
)

// recorder captures published events.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recorder) names() []events.Name {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]events.Name, 0, len(r.events))
	for _, event := range r.events {
		names = append(names, event.Name)
	}
	return names
}

type fixture struct {
	service  *auth.Service
	users    *memstore.Users
	sessions *memstore.Sessions
	clock    *clock.Manual
	bus      *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clk := clock.NewManual(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	tokens, err := sec.NewTokenCodec("test-secret", constants.AuthIssuer, 30*time.Minute, 30*24*time.Hour, clk)
	require.NoError(t, err)

	f := &fixture{
		users:    memstore.NewUsers(),
		sessions: memstore.NewSessions(),
		clock:    clk,
		bus:      &recorder{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.service = auth.NewService(f.users, f.sessions, sec.NewHasher(bcrypt.MinCost), tokens, f.bus, clk, logger)
	return f
}

func (f *fixture) register(t *testing.T, username, password string) *auth.User {
	t.Helper()
	user, err := f.service.Register(context.Background(), auth.RegisterInput{
		Username: username,
		Email:    username + "@spotex.io",
		Password: password,
	})
	require.NoError(t, err)
	return user
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.register(t, "alice", "s3cret-pass")
	assert.Equal(t, sec.RoleSubscriber, user.Role)
	assert.Equal(t, "alice", user.DisplayName)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)

	_, err := f.service.Register(ctx, auth.RegisterInput{Username: "other", Email: "ALICE@spotex.io", Password: "x"})
	assert.True(t, apperr.HasStatus(err, http.StatusConflict))

	_, err = f.service.Register(ctx, auth.RegisterInput{Username: "alice", Email: "new@spotex.io", Password: "x"})
	assert.True(t, apperr.HasStatus(err, http.StatusConflict))

	assert.Equal(t, []events.Name{events.UserRegistered}, f.bus.names())
}

func TestLogin_ByUsernameOrEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "admin", "admin123")

	for _, identifier := range []string{"admin", "admin@spotex.io"} {
		result, err := f.service.Login(ctx, auth.LoginInput{
			Login:     identifier,
			Password:  "admin123",
			IPAddress: "203.0.113.7",
			UserAgent: "test-agent",
		})
		require.NoError(t, err, identifier)

		assert.NotEmpty(t, result.AccessToken)
		assert.NotEmpty(t, result.RefreshToken)
		assert.Equal(t, "203.0.113.7", result.Session.IPAddress)
		assert.Equal(t, f.clock.Now().Add(30*24*time.Hour), result.Session.ExpiresAt)
		assert.Equal(t, f.clock.Now().Add(30*time.Minute), result.AccessExpiresAt)
		require.NotNil(t, result.User.LastLoginAt)
	}

	assert.Equal(t, 2, f.sessions.Len())
	assert.Contains(t, f.bus.names(), events.UserLogin)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inactive := f.register(t, "bob", "right-pass")
	f.register(t, "carol", "right-pass")
	require.NoError(t, f.users.SetActive(inactive.ID, false))

	attempts := []auth.LoginInput{
		{Login: "nobody", Password: "right-pass"},
		{Login: "carol", Password: "wrong-pass"},
		{Login: "bob", Password: "right-pass"},
		{Login: "", Password: "right-pass"},
	}

	var messages []string
	for _, attempt := range attempts {
		_, err := f.service.Login(ctx, attempt)
		appErr := apperr.As(err)
		require.NotNil(t, appErr)
		assert.Equal(t, http.StatusUnauthorized, appErr.HTTPStatus)
		messages = append(messages, appErr.Message)
	}

	for _, message := range messages {
		assert.Equal(t, messages[0], message)
	}
	assert.Zero(t, f.sessions.Len())
}

func TestRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "dave", "pass-word")

	login, err := f.service.Login(ctx, auth.LoginInput{Login: "dave", Password: "pass-word"})
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	refreshed, err := f.service.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.AccessToken, refreshed.AccessToken)
	assert.Equal(t, f.clock.Now().UTC().Truncate(time.Second).Add(30*time.Minute), refreshed.AccessExpiresAt)

	// An access token is not a refresh token.
	_, err = f.service.Refresh(ctx, login.AccessToken)
	assert.True(t, apperr.HasStatus(err, http.StatusUnauthorized))

	require.NoError(t, f.service.RevokeSession(ctx, login.User.ID, login.Session.Token))
	_, err = f.service.Refresh(ctx, login.RefreshToken)
	assert.True(t, apperr.HasStatus(err, http.StatusUnauthorized))
}

func TestValidateSession_ExpiryIsLazy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.register(t, "erin", "pass-word")

	session, err := f.service.CreateSession(ctx, user, "10.0.0.1", "ua", time.Minute)
	require.NoError(t, err)

	_, err = f.service.ValidateSession(ctx, session.Token)
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	_, err = f.service.ValidateSession(ctx, session.Token)
	assert.True(t, apperr.HasStatus(err, http.StatusNotFound))
	assert.Zero(t, f.sessions.Len())
}

func TestListSessions_NewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.register(t, "frank", "pass-word")

	first, err := f.service.CreateSession(ctx, user, "10.0.0.1", "ua", time.Hour)
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	second, err := f.service.CreateSession(ctx, user, "10.0.0.2", "ua", time.Hour)
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	_, err = f.service.CreateSession(ctx, user, "10.0.0.3", "ua", time.Millisecond)
	require.NoError(t, err)

	f.clock.Advance(time.Second)
	sessions, err := f.service.ListSessions(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, second.Token, sessions[0].Token)
	assert.Equal(t, first.Token, sessions[1].Token)
}

func TestRevokeSession_ForeignTokenIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "gina", "pass-word")
	intruder := f.register(t, "hank", "pass-word")

	session, err := f.service.CreateSession(ctx, owner, "", "", time.Hour)
	require.NoError(t, err)

	err = f.service.RevokeSession(ctx, intruder.ID, session.Token)
	assert.True(t, apperr.HasStatus(err, http.StatusNotFound))

	err = f.service.RevokeSession(ctx, owner.ID, "missing")
	assert.True(t, apperr.HasStatus(err, http.StatusNotFound))

	require.NoError(t, f.service.RevokeSession(ctx, owner.ID, session.Token))
	err = f.service.RevokeSession(ctx, owner.ID, session.Token)
	assert.True(t, apperr.HasStatus(err, http.StatusNotFound))
}

func TestRevokeAllSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.register(t, "ivy", "pass-word")
	other := f.register(t, "jack", "pass-word")

	current, err := f.service.CreateSession(ctx, user, "", "", time.Hour)
	require.NoError(t, err)
	for range 2 {
		_, err := f.service.CreateSession(ctx, user, "", "", time.Hour)
		require.NoError(t, err)
	}
	_, err = f.service.CreateSession(ctx, other, "", "", time.Hour)
	require.NoError(t, err)

	count, err := f.service.RevokeAllSessions(ctx, user.ID, current.Token)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	remaining, err := f.service.ListSessions(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, current.Token, remaining[0].Token)

	count, err = f.service.RevokeAllSessions(ctx, user.ID, "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	assert.Equal(t, 1, f.sessions.Len())
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "kate", "pass-word")

	login, err := f.service.Login(ctx, auth.LoginInput{Login: "kate", Password: "pass-word"})
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(ctx, login.User.Principal(login.Session.Token)))
	assert.Zero(t, f.sessions.Len())

	keyPrincipal := &sec.Principal{UserID: login.User.ID, Kind: sec.KindAPIKey, APIKeyID: "key-1"}
	err = f.service.Logout(ctx, keyPrincipal)
	assert.True(t, apperr.HasStatus(err, http.StatusBadRequest))
}

func TestPurgeExpiredSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.register(t, "liam", "pass-word")

	_, err := f.service.CreateSession(ctx, user, "", "", time.Minute)
	require.NoError(t, err)
	_, err = f.service.CreateSession(ctx, user, "", "", time.Hour)
	require.NoError(t, err)

	f.clock.Advance(2 * time.Minute)
	purged, err := f.service.PurgeExpiredSessions(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)
	assert.Equal(t, 1, f.sessions.Len())
}

func TestEnsureAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.EnsureAdmin(ctx, auth.RegisterInput{Username: "root", Password: "admin123"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.service.EnsureAdmin(ctx, auth.RegisterInput{Username: "root", Password: "other"})
	require.NoError(t, err)
	assert.False(t, created)

	admin, err := f.users.FindByUsername(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, sec.RoleAdmin, admin.Role)
	assert.True(t, admin.IsSuperuser)
	assert.Equal(t, "root@localhost", admin.Email)
}
