// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

/*
Package gate resolves bearer credentials to principals.

Two credential shapes are accepted:

  - API keys, recognised by their "scms_" prefix.
  - Signed access tokens, optionally bound to a live server-side session.

Every rejection looks the same to the caller. Only infrastructure failures
(5xx) escape with their own status.
*/
package gate

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/apperr"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/constants"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/sec"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/users/apikey"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/users/auth"
)

// ErrInvalidCredentials is the single rejection returned for any bad credential.
var ErrInvalidCredentials = apperr.Unauthorized("Invalid or expired credentials")

// UserFinder loads the account behind a credential.
type UserFinder interface {
	FindUser(ctx context.Context, id string) (*auth.User, error)
}

// SessionValidator checks that a session token is still live.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (*auth.Session, error)
}

// KeyResolver authenticates a plaintext API key.
type KeyResolver interface {
	Resolve(ctx context.Context, plaintext string) (*apikey.APIKey, error)
}

// Options configures a [Gate].
type Options struct {
	// SessionBound rejects access tokens whose session no longer exists.
	SessionBound bool
}

// Gate implements [middleware.Authenticator].
type Gate struct {
	tokens   *sec.TokenCodec
	users    UserFinder
	sessions SessionValidator
	keys     KeyResolver
	options  Options
	logger   *slog.Logger
}

// New constructs a [Gate].
func New(tokens *sec.TokenCodec, users UserFinder, sessions SessionValidator, keys KeyResolver, options Options, logger *slog.Logger) *Gate {
	return &Gate{
		tokens:   tokens,
		users:    users,
		sessions: sessions,
		keys:     keys,
		options:  options,
		logger:   logger,
	}
}

// Authenticate resolves credential to a principal.
func (gate *Gate) Authenticate(ctx context.Context, credential string) (*sec.Principal, error) {
	var (
		principal *sec.Principal
		err       error
	)
	if strings.HasPrefix(credential, constants.APIKeyPrefix) {
		principal, err = gate.fromAPIKey(ctx, credential)
	} else {
		principal, err = gate.fromAccessToken(ctx, credential)
	}
	if err != nil {
		return nil, gate.reject(ctx, err)
	}
	return principal, nil
}

func (gate *Gate) fromAPIKey(ctx context.Context, plaintext string) (*sec.Principal, error) {
	key, err := gate.keys.Resolve(ctx, plaintext)
	if err != nil {
		return nil, err
	}

	owner, err := gate.activeUser(ctx, key.UserID)
	if err != nil {
		return nil, err
	}

	principal := owner.Principal("")
	principal.Kind = sec.KindAPIKey
	principal.APIKeyID = key.ID
	principal.Permissions = key.Permissions
	return principal, nil
}

func (gate *Gate) fromAccessToken(ctx context.Context, token string) (*sec.Principal, error) {
	claims, err := gate.tokens.Decode(token, sec.TokenAccess)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if gate.options.SessionBound {
		if claims.SessionID == "" {
			return nil, ErrInvalidCredentials
		}
		session, err := gate.sessions.ValidateSession(ctx, claims.SessionID)
		if err != nil {
			return nil, err
		}
		if session.UserID != claims.Subject {
			return nil, ErrInvalidCredentials
		}
	}

	user, err := gate.activeUser(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	return user.Principal(claims.SessionID), nil
}

func (gate *Gate) activeUser(ctx context.Context, id string) (*auth.User, error) {
	user, err := gate.users.FindUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// reject collapses every client-side failure into [ErrInvalidCredentials].
func (gate *Gate) reject(ctx context.Context, err error) error {
	if appErr := apperr.As(err); appErr == nil || appErr.HTTPStatus >= http.StatusInternalServerError {
		gate.logger.ErrorContext(ctx, "auth_gate_lookup_failed", slog.String("error", err.Error()))
		if appErr != nil {
			return appErr
		}
		return apperr.Internal(err)
	}
	return ErrInvalidCredentials
}
