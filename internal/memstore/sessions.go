// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package memstore

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/apperr"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/users/auth"
)

type sessionRow struct {
	session auth.Session
	seq     uint64
}

// Sessions implements [auth.SessionRepository].
type Sessions struct {
	mu      sync.Mutex
	byToken map[string]sessionRow
	seq     uint64
}

// NewSessions returns an empty session store.
func NewSessions() *Sessions {
	return &Sessions{byToken: make(map[string]sessionRow)}
}

func (store *Sessions) Create(_ context.Context, session *auth.Session) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, exists := store.byToken[session.Token]; exists {
		return errors.New("create_session: token collision")
	}
	store.seq++
	store.byToken[session.Token] = sessionRow{session: *session, seq: store.seq}
	return nil
}

// FindByToken returns expired sessions too.
func (store *Sessions) FindByToken(_ context.Context, token string) (*auth.Session, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	row, ok := store.byToken[token]
	if !ok {
		return nil, apperr.NotFound("Session")
	}
	session := row.session
	return &session, nil
}

// ListByUser returns live sessions, newest first.
func (store *Sessions) ListByUser(_ context.Context, userID string, now time.Time) ([]*auth.Session, error) {
	store.mu.Lock()
	rows := make([]sessionRow, 0)
	for _, row := range store.byToken {
		if row.session.UserID == userID && !row.session.Expired(now) {
			rows = append(rows, row)
		}
	}
	store.mu.Unlock()

	slices.SortFunc(rows, func(a, b sessionRow) int {
		if c := b.session.CreatedAt.Compare(a.session.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.seq, a.seq)
	})

	sessions := make([]*auth.Session, 0, len(rows))
	for _, row := range rows {
		session := row.session
		sessions = append(sessions, &session)
	}
	return sessions, nil
}

func (store *Sessions) Delete(_ context.Context, userID, token string) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	row, ok := store.byToken[token]
	if !ok || row.session.UserID != userID {
		return false, nil
	}
	delete(store.byToken, token)
	return true, nil
}

func (store *Sessions) DeleteAllForUser(_ context.Context, userID, exceptToken string) (int64, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	var count int64
	for token, row := range store.byToken {
		if row.session.UserID == userID && token != exceptToken {
			delete(store.byToken, token)
			count++
		}
	}
	return count, nil
}

func (store *Sessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	var count int64
	for token, row := range store.byToken {
		if row.session.Expired(now) {
			delete(store.byToken, token)
			count++
		}
	}
	return count, nil
}

// Len returns the number of stored rows, expired ones included.
func (store *Sessions) Len() int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return len(store.byToken)
}
