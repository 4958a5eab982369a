// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/events"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/apperr"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/clock"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/constants"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/sec"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/pkg/uuid"
)

// errInvalidLogin is shared by every login failure so they cannot be told apart.
var errInvalidLogin = apperr.Unauthorized("Invalid login credentials")

// errInvalidRefresh is shared by every refresh failure.
var errInvalidRefresh = apperr.Unauthorized("Invalid or expired refresh token")

// Service implements user authentication and session use cases.
//
// Login failures share one error value and one timing profile. Keep it that
// way when touching lookup or hashing.
type Service struct {
	userRepository    UserRepository
	sessionRepository SessionRepository
	hasher            *sec.Hasher
	tokens            *sec.TokenCodec
	publisher         events.Publisher
	clock             clock.Clock
	logger            *slog.Logger
}

// NewService constructs a new [Service] with its dependencies.
func NewService(
	userRepo UserRepository,
	sessionRepo SessionRepository,
	hasher *sec.Hasher,
	tokens *sec.TokenCodec,
	publisher events.Publisher,
	clk clock.Clock,
	logger *slog.Logger,
) *Service {
	return &Service{
		userRepository:    userRepo,
		sessionRepository: sessionRepo,
		hasher:            hasher,
		tokens:            tokens,
		publisher:         publisher,
		clock:             clk,
		logger:            logger,
	}
}

// AccessTTL is the lifetime of minted access tokens.
func (service *Service) AccessTTL() time.Duration {
	return service.tokens.AccessTTL()
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
}

/*
Register validates uniqueness, hashes the password, and persists a new subscriber.

Returns:
  - *User: Created entity
  - error: Conflict (if identity exists), BadRequest (unusable password) or storage errors
*/
func (service *Service) Register(ctx context.Context, input RegisterInput) (*User, error) {

	// Verify email and username uniqueness with client-safe Conflict errors.
	if _, err := service.userRepository.FindByEmail(ctx, input.Email); err == nil {
		return nil, apperr.Conflict("Email is already registered")
	} else if !apperr.HasStatus(err, http.StatusNotFound) {
		return nil, err
	}
	if _, err := service.userRepository.FindByUsername(ctx, input.Username); err == nil {
		return nil, apperr.Conflict("Username is already taken")
	} else if !apperr.HasStatus(err, http.StatusNotFound) {
		return nil, err
	}

	user, err := service.newUser(input, sec.RoleSubscriber, false)
	if err != nil {
		return nil, err
	}

	if err := service.userRepository.Create(ctx, user); err != nil {
		return nil, err
	}

	service.publish(ctx, events.Event{
		Name:       events.UserRegistered,
		ResourceID: user.ID,
		Payload:    map[string]any{"id": user.ID, "username": user.Username, "email": user.Email},
		Actor:      events.Actor{UserID: user.ID},
	})

	return user, nil
}

func (service *Service) newUser(input RegisterInput, role sec.Role, superuser bool) (*User, error) {
	hashedPassword, err := service.hasher.Hash(input.Password)
	if err != nil {
		if errors.Is(err, sec.ErrWeakInput) {
			return nil, apperr.BadRequest("Password must be between 1 and 72 bytes")
		}
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		displayName = input.Username
	}

	now := service.clock.Now().UTC()
	return &User{
		ID:           uuid.New(),
		Username:     strings.TrimSpace(input.Username),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: hashedPassword,
		DisplayName:  displayName,
		Role:         role,
		IsActive:     true,
		IsSuperuser:  superuser,
		IsVerified:   superuser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Login     string // Username or Email
	Password  string
	UserAgent string
	IPAddress string
}

// LoginResult is a successfully established session with its tokens.
type LoginResult struct {
	AccessToken     string
	AccessExpiresAt time.Time
	RefreshToken    string
	Session         *Session
	User            *User
}

/*
Login validates user credentials and opens a new session.

Unknown users, wrong passwords and inactive accounts all return the same 401.
A miss still spends one bcrypt comparison so response time does not reveal
whether the account exists.
*/
func (service *Service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := service.lookupLogin(ctx, input.Login)
	if err != nil {
		if !apperr.HasStatus(err, http.StatusNotFound) {
			return nil, err
		}
		service.hasher.Equalize(input.Password)
		return nil, errInvalidLogin
	}

	if !service.hasher.Verify(input.Password, user.PasswordHash) || !user.IsActive {
		return nil, errInvalidLogin
	}

	// Transparent upgrade of hashes produced with an older cost.
	if service.hasher.NeedsRehash(user.PasswordHash) {
		service.rehash(ctx, user, input.Password)
	}

	session, err := service.CreateSession(ctx, user, input.IPAddress, input.UserAgent, service.tokens.RefreshTTL())
	if err != nil {
		return nil, err
	}

	principal := user.Principal(session.Token)
	accessToken, accessExpiresAt, err := service.tokens.MintAccess(principal, session.Token)
	if err != nil {
		return nil, fmt.Errorf("auth_service_mint_access_failed: %w", err)
	}
	refreshToken, _, err := service.tokens.MintRefresh(principal, session.Token)
	if err != nil {
		return nil, fmt.Errorf("auth_service_mint_refresh_failed: %w", err)
	}

	now := service.clock.Now().UTC()
	if err := service.userRepository.TouchLastLogin(ctx, user.ID, now); err != nil {
		service.logger.WarnContext(ctx, "auth_touch_last_login_failed",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	} else {
		user.LastLoginAt = &now
	}

	service.publish(ctx, events.Event{
		Name:       events.UserLogin,
		ResourceID: user.ID,
		Payload:    map[string]any{"id": user.ID, "username": user.Username},
		Actor:      events.Actor{UserID: user.ID, IP: input.IPAddress, UserAgent: input.UserAgent},
	})

	return &LoginResult{
		AccessToken:     accessToken,
		AccessExpiresAt: accessExpiresAt,
		RefreshToken:    refreshToken,
		Session:         session,
		User:            user,
	}, nil
}

// lookupLogin resolves an identifier as email first when it looks like one, then as username.
func (service *Service) lookupLogin(ctx context.Context, login string) (*User, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, apperr.NotFound("User")
	}
	if strings.Contains(login, "@") {
		user, err := service.userRepository.FindByEmail(ctx, login)
		if err == nil || !apperr.HasStatus(err, http.StatusNotFound) {
			return user, err
		}
	}
	return service.userRepository.FindByUsername(ctx, login)
}

func (service *Service) rehash(ctx context.Context, user *User, password string) {
	newHash, err := service.hasher.Hash(password)
	if err == nil {
		err = service.userRepository.UpdatePassword(ctx, user.ID, newHash)
	}
	if err != nil {
		service.logger.WarnContext(ctx, "auth_rehash_failed",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	user.PasswordHash = newHash
}

// RefreshResult carries a freshly minted access token.
type RefreshResult struct {
	AccessToken     string
	AccessExpiresAt time.Time
	User            *User
}

/*
Refresh exchanges a refresh token for a new access token.

The session named by the token must still be live and belong to the token's
subject; the refresh token itself is not rotated.
*/
func (service *Service) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	claims, err := service.tokens.Decode(refreshToken, sec.TokenRefresh)
	if err != nil || claims.SessionID == "" {
		return nil, errInvalidRefresh
	}

	session, err := service.ValidateSession(ctx, claims.SessionID)
	if err != nil {
		if apperr.HasStatus(err, http.StatusNotFound) {
			return nil, errInvalidRefresh
		}
		return nil, err
	}
	if session.UserID != claims.Subject {
		return nil, errInvalidRefresh
	}

	user, err := service.userRepository.FindByID(ctx, claims.Subject)
	if err != nil {
		if apperr.HasStatus(err, http.StatusNotFound) {
			return nil, errInvalidRefresh
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, errInvalidRefresh
	}

	accessToken, expiresAt, err := service.tokens.MintAccess(user.Principal(session.Token), session.Token)
	if err != nil {
		return nil, fmt.Errorf("auth_service_mint_access_failed: %w", err)
	}

	return &RefreshResult{AccessToken: accessToken, AccessExpiresAt: expiresAt, User: user}, nil
}

/*
Logout revokes the caller's current session.

API-key principals have no session and get a 400.
*/
func (service *Service) Logout(ctx context.Context, principal *sec.Principal) error {
	if principal.IsAPIKey() || principal.SessionToken == "" {
		return apperr.BadRequest("Logout requires a session credential")
	}

	if _, err := service.sessionRepository.Delete(ctx, principal.UserID, principal.SessionToken); err != nil {
		return err
	}

	service.publish(ctx, events.Event{
		Name:       events.UserLogout,
		ResourceID: principal.UserID,
		Payload:    map[string]any{"id": principal.UserID},
	})
	return nil
}

// # Session Management

// CreateSession opens a session for user lasting ttl.
func (service *Service) CreateSession(ctx context.Context, user *User, ipAddress, userAgent string, ttl time.Duration) (*Session, error) {
	token, err := sec.GenerateSecureToken(constants.SessionTokenLength)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	now := service.clock.Now().UTC()
	session := &Session{
		Token:     token,
		UserID:    user.ID,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	if err := service.sessionRepository.Create(ctx, session); err != nil {
		if apperr.IsAppError(err) {
			return nil, err
		}
		return nil, apperr.Internal(err)
	}
	return session, nil
}

// ListSessions returns the caller's live sessions, newest first.
func (service *Service) ListSessions(ctx context.Context, userID string) ([]*Session, error) {
	return service.sessionRepository.ListByUser(ctx, userID, service.clock.Now())
}

// ValidateSession resolves a live session by token. Expired rows are deleted and reported as not found.
func (service *Service) ValidateSession(ctx context.Context, token string) (*Session, error) {
	session, err := service.sessionRepository.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if session.Expired(service.clock.Now()) {
		if _, err := service.sessionRepository.Delete(ctx, session.UserID, session.Token); err != nil {
			service.logger.WarnContext(ctx, "auth_expired_session_delete_failed", slog.String("error", err.Error()))
		}
		return nil, apperr.NotFound("Session")
	}
	return session, nil
}

// RevokeSession deletes one of userID's sessions. Unknown, expired or foreign tokens are 404.
func (service *Service) RevokeSession(ctx context.Context, userID, token string) error {
	session, err := service.ValidateSession(ctx, token)
	if err != nil {
		return err
	}
	if session.UserID != userID {
		return apperr.NotFound("Session")
	}

	deleted, err := service.sessionRepository.Delete(ctx, userID, token)
	if err != nil {
		return err
	}
	if !deleted {
		return apperr.NotFound("Session")
	}

	service.publish(ctx, events.Event{
		Name:       events.SessionRevoked,
		ResourceID: userID,
		Payload:    map[string]any{"user_id": userID, "count": 1},
	})
	return nil
}

// RevokeAllSessions deletes every session of userID. A non-empty exceptToken is kept.
func (service *Service) RevokeAllSessions(ctx context.Context, userID, exceptToken string) (int64, error) {
	count, err := service.sessionRepository.DeleteAllForUser(ctx, userID, exceptToken)
	if err != nil {
		return 0, err
	}

	service.publish(ctx, events.Event{
		Name:       events.SessionRevoked,
		ResourceID: userID,
		Payload:    map[string]any{"user_id": userID, "count": count, "kept_current": exceptToken != ""},
	})
	return count, nil
}

// PurgeExpiredSessions removes expired rows. Run by the scheduler.
func (service *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return service.sessionRepository.DeleteExpired(ctx, service.clock.Now())
}

// # Identity Lookups

// FindUser returns a user by ID.
func (service *Service) FindUser(ctx context.Context, id string) (*User, error) {
	return service.userRepository.FindByID(ctx, id)
}

// # Bootstrap

// EnsureAdmin creates an active superuser admin unless the username already exists.
// It reports whether a user was created.
func (service *Service) EnsureAdmin(ctx context.Context, input RegisterInput) (bool, error) {
	if _, err := service.userRepository.FindByUsername(ctx, input.Username); err == nil {
		return false, nil
	} else if !apperr.HasStatus(err, http.StatusNotFound) {
		return false, err
	}

	if input.Email == "" {
		input.Email = input.Username + "@localhost"
	}
	user, err := service.newUser(input, sec.RoleAdmin, true)
	if err != nil {
		return false, err
	}
	if err := service.userRepository.Create(ctx, user); err != nil {
		return false, err
	}

	service.logger.InfoContext(ctx, "auth_bootstrap_admin_created",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)
	return true, nil
}

// publish hands the event to the bus. A malformed name is a programming error and only logged.
func (service *Service) publish(ctx context.Context, event events.Event) {
	if service.publisher == nil {
		return
	}
	if err := service.publisher.Publish(ctx, event); err != nil {
		service.logger.ErrorContext(ctx, "event_publish_failed",
			slog.String("event", event.Name.String()),
			slog.String("error", err.Error()),
		)
	}
}
