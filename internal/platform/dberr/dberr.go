// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/apperr"
)

// Wrap inspects a database error and converts it into an [apperr.AppError].
//
// # Mapping
//   - pgx.ErrNoRows          -> 404 NotFound(resource)
//   - invalid_text 22P02     -> 404 NotFound(resource), a malformed key matches no row
//   - unique_violation 23505 -> 409 Conflict
//   - anything else          -> 500 Internal (cause kept for logs, tagged with action)
func Wrap(err error, resource, action string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) || hasCode(err, pgerrcode.InvalidTextRepresentation) {
		return apperr.NotFound(resource)
	}

	if IsUniqueViolation(err) {
		return apperr.Conflict(resource + " already exists")
	}

	return apperr.Internal(fmt.Errorf("%s: %w", action, err))
}

// IsUniqueViolation reports whether err is a Postgres unique constraint violation.
func IsUniqueViolation(err error) bool {
	return hasCode(err, pgerrcode.UniqueViolation)
}

func hasCode(err error, code string) bool {
	var pgError *pgconn.PgError
	return errors.As(err, &pgError) && pgError.Code == code
}

// ConstraintName returns the violated constraint, or "" for other errors.
func ConstraintName(err error) string {
	var pgError *pgconn.PgError
	if errors.As(err, &pgError) {
		return pgError.ConstraintName
	}
	return ""
}
