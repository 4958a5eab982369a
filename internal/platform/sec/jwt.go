// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

// Package sec provides cryptographic primitives, token management and the
// authorization vocabulary (roles, permissions, principals).
//
// # Architecture
//
// This package isolates security-sensitive code (hashing, JWT signing) from
// the domain logic. It is injected into the application layer through
// constructors. The only package-level setting is the JWT time precision.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/clock"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/pkg/uuid"
)

// Token times are encoded with millisecond precision so exp lands on
// iat+ttl instead of up to a second earlier.
func init() {
	jwt.TimePrecision = time.Millisecond
}

var (
	// ErrTokenInvalid covers malformed tokens, bad signatures, wrong issuer and wrong kind.
	ErrTokenInvalid = errors.New("sec: invalid token")

	// ErrTokenExpired is returned when now >= exp.
	ErrTokenExpired = errors.New("sec: token expired")
)

// TokenKind distinguishes short-lived access tokens from refresh tokens.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// TokenClaims represents the payload embedded inside a signed token.
//
// Custom claims are abbreviated to keep the payload small. The session token
// travels in "sid" so the gate can check the session is still live.
type TokenClaims struct {
	jwt.RegisteredClaims

	Kind      TokenKind `json:"knd"`
	Role      Role      `json:"rol"`
	SessionID string    `json:"sid,omitempty"`
}

// TokenCodec mints and verifies HS256 tokens with a server-held secret.
type TokenCodec struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	clock      clock.Clock
	parser     *jwt.Parser
}

// NewTokenCodec creates a [TokenCodec]. The secret must not be empty.
func NewTokenCodec(secret, issuer string, accessTTL, refreshTTL time.Duration, clk clock.Clock) (*TokenCodec, error) {
	if secret == "" {
		return nil, errors.New("sec: token secret is empty")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("sec: token TTLs must be positive")
	}
	if clk == nil {
		clk = clock.System{}
	}

	return &TokenCodec{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		clock:      clk,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(issuer),
			jwt.WithExpirationRequired(),
			jwt.WithTimeFunc(clk.Now),
		),
	}, nil
}

// AccessTTL returns the lifetime of access tokens.
func (codec *TokenCodec) AccessTTL() time.Duration { return codec.accessTTL }

// RefreshTTL returns the lifetime of refresh tokens.
func (codec *TokenCodec) RefreshTTL() time.Duration { return codec.refreshTTL }

// MintAccess creates an access token for principal bound to sessionToken.
func (codec *TokenCodec) MintAccess(principal *Principal, sessionToken string) (string, time.Time, error) {
	return codec.mint(principal, sessionToken, TokenAccess, codec.accessTTL)
}

// MintRefresh creates a refresh token for principal bound to sessionToken.
func (codec *TokenCodec) MintRefresh(principal *Principal, sessionToken string) (string, time.Time, error) {
	return codec.mint(principal, sessionToken, TokenRefresh, codec.refreshTTL)
}

func (codec *TokenCodec) mint(principal *Principal, sessionToken string, kind TokenKind, ttl time.Duration) (string, time.Time, error) {
	issuedAt := codec.clock.Now().UTC().Truncate(jwt.TimePrecision)
	expiresAt := issuedAt.Add(ttl)

	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New(),
			Subject:   principal.UserID,
			Issuer:    codec.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Kind:      kind,
		Role:      principal.Role,
		SessionID: sessionToken,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(codec.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sec: failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Decode verifies the signature first and only then reads the claims.
// It fails with [ErrTokenExpired] when now >= exp and [ErrTokenInvalid] otherwise.
func (codec *TokenCodec) Decode(tokenString string, kind TokenKind) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := codec.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return codec.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !token.Valid || claims.Subject == "" || claims.Kind != kind {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
