// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/database/schema"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/dberr"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/postgres"
)

// # User Repository

// PostgresUserRepository implements [UserRepository] on users.account.
type PostgresUserRepository struct {
	db postgres.DB
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(db postgres.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

var userColumns = strings.Join([]string{
	schema.UserAccount.ID,
	schema.UserAccount.Username,
	schema.UserAccount.Email,
	schema.UserAccount.Password,
	schema.UserAccount.DisplayName,
	schema.UserAccount.Role,
	schema.UserAccount.IsActive,
	schema.UserAccount.IsSuperuser,
	schema.UserAccount.IsVerified,
	schema.UserAccount.LastLoginAt,
	schema.UserAccount.CreatedAt,
	schema.UserAccount.UpdatedAt,
}, ", ")

func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&user.Role,
		&user.IsActive,
		&user.IsSuperuser,
		&user.IsVerified,
		&user.LastLoginAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

/*
Create persists a new user record into the users.account table.

Returns:
  - error: apperr.Conflict on a duplicate username/email, or storage errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		schema.UserAccount.Table, userColumns)

	_, err := repository.db.Exec(context, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.DisplayName,
		user.Role,
		user.IsActive,
		user.IsSuperuser,
		user.IsVerified,
		user.LastLoginAt,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return dberr.Wrap(err, "User", "create_user")
}

// FindByID retrieves a user by primary key.
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	return repository.findOne(context, schema.UserAccount.ID+" = $1", id, "find_user_by_id")
}

// FindByEmail retrieves a user by email, ignoring case.
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	return repository.findOne(context, "lower("+schema.UserAccount.Email+") = lower($1)", email, "find_user_by_email")
}

// FindByUsername retrieves a user by username, ignoring case.
func (repository *PostgresUserRepository) FindByUsername(context context.Context, username string) (*User, error) {
	return repository.findOne(context, "lower("+schema.UserAccount.Username+") = lower($1)", username, "find_user_by_username")
}

func (repository *PostgresUserRepository) findOne(context context.Context, where string, arg any, action string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s`, userColumns, schema.UserAccount.Table, where)

	user, err := scanUser(repository.db.QueryRow(context, query, arg))
	if err != nil {
		return nil, dberr.Wrap(err, "User", action)
	}
	return user, nil
}

// UpdatePassword replaces the stored bcrypt record.
func (repository *PostgresUserRepository) UpdatePassword(context context.Context, userID, newHash string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = now() WHERE %s = $1`,
		schema.UserAccount.Table, schema.UserAccount.Password, schema.UserAccount.UpdatedAt, schema.UserAccount.ID)

	tag, err := repository.db.Exec(context, query, userID, newHash)
	if err != nil {
		return dberr.Wrap(err, "User", "update_password")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "User", "update_password")
	}
	return nil
}

// TouchLastLogin stamps the last successful login.
func (repository *PostgresUserRepository) TouchLastLogin(context context.Context, userID string, at time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1`,
		schema.UserAccount.Table, schema.UserAccount.LastLoginAt, schema.UserAccount.ID)

	_, err := repository.db.Exec(context, query, userID, at)
	return dberr.Wrap(err, "User", "touch_last_login")
}

// # Session Repository

// PostgresSessionRepository implements [SessionRepository] on users.session.
type PostgresSessionRepository struct {
	db postgres.DB
}

// NewSessionRepository creates a new PostgreSQL implementation of the SessionRepository.
func NewSessionRepository(db postgres.DB) *PostgresSessionRepository {
	return &PostgresSessionRepository{db: db}
}

var sessionColumns = strings.Join(schema.UserSession.Columns(), ", ")

func scanSession(row pgx.Row) (*Session, error) {
	session := &Session{}
	err := row.Scan(
		&session.Token,
		&session.UserID,
		&session.IPAddress,
		&session.UserAgent,
		&session.CreatedAt,
		&session.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	return session, nil
}

/*
Create persists a new session row.

A duplicate token is reported as an internal error: tokens carry 256 bits of
entropy, so a collision means the random source is broken.
*/
func (repository *PostgresSessionRepository) Create(context context.Context, session *Session) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6)`,
		schema.UserSession.Table, sessionColumns)

	_, err := repository.db.Exec(context, query,
		session.Token,
		session.UserID,
		session.IPAddress,
		session.UserAgent,
		session.CreatedAt,
		session.ExpiresAt,
	)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return fmt.Errorf("create_session: token collision: %w", err)
		}
		return dberr.Wrap(err, "Session", "create_session")
	}
	return nil
}

// FindByToken looks a session up by its token, expired or not.
func (repository *PostgresSessionRepository) FindByToken(context context.Context, token string) (*Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		sessionColumns, schema.UserSession.Table, schema.UserSession.Token)

	session, err := scanSession(repository.db.QueryRow(context, query, token))
	if err != nil {
		return nil, dberr.Wrap(err, "Session", "find_session")
	}
	return session, nil
}

// ListByUser returns the live sessions of a user, newest first.
func (repository *PostgresSessionRepository) ListByUser(context context.Context, userID string, now time.Time) ([]*Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s > $2 ORDER BY %s DESC`,
		sessionColumns, schema.UserSession.Table,
		schema.UserSession.UserID, schema.UserSession.ExpiresAt, schema.UserSession.CreatedAt)

	rows, err := repository.db.Query(context, query, userID, now)
	if err != nil {
		return nil, dberr.Wrap(err, "Session", "list_sessions")
	}
	defer rows.Close()

	sessions := make([]*Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "Session", "scan_session")
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "Session", "list_sessions")
	}
	return sessions, nil
}

// Delete removes one session owned by userID.
func (repository *PostgresSessionRepository) Delete(context context.Context, userID, token string) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`,
		schema.UserSession.Table, schema.UserSession.Token, schema.UserSession.UserID)

	tag, err := repository.db.Exec(context, query, token, userID)
	if err != nil {
		return false, dberr.Wrap(err, "Session", "delete_session")
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteAllForUser removes every session of a user, optionally sparing one token.
func (repository *PostgresSessionRepository) DeleteAllForUser(context context.Context, userID, exceptToken string) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND ($2 = '' OR %s <> $2)`,
		schema.UserSession.Table, schema.UserSession.UserID, schema.UserSession.Token)

	tag, err := repository.db.Exec(context, query, userID, exceptToken)
	if err != nil {
		return 0, dberr.Wrap(err, "Session", "delete_user_sessions")
	}
	return tag.RowsAffected(), nil
}

// DeleteExpired purges sessions past their expiry.
func (repository *PostgresSessionRepository) DeleteExpired(context context.Context, now time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s <= $1`,
		schema.UserSession.Table, schema.UserSession.ExpiresAt)

	tag, err := repository.db.Exec(context, query, now)
	if err != nil {
		return 0, dberr.Wrap(err, "Session", "delete_expired_sessions")
	}
	return tag.RowsAffected(), nil
}
