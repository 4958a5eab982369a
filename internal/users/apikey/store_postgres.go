// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package apikey

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

const resourceAPIKey = "API key"

// PostgresRepository implements [Repository] on users.apikey.
type PostgresRepository struct {
	db postgres.DB
}

// NewPostgresRepository constructs a new [PostgresRepository].
func NewPostgresRepository(db postgres.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var keyColumns = strings.Join(schema.UserAPIKey.Columns(), ", ")

func scanKey(row pgx.Row) (*APIKey, error) {
	key := &APIKey{}
	err := row.Scan(
		&key.ID,
		&key.Name,
		&key.Prefix,
		&key.Fingerprint,
		&key.SecretHash,
		&key.UserID,
		&key.StoreID,
		&key.Permissions,
		&key.IsActive,
		&key.ExpiresAt,
		&key.LastUsedAt,
		&key.CreatedAt,
		&key.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return key, nil
}

// Create inserts a new key row.
func (repository *PostgresRepository) Create(context context.Context, key *APIKey) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		schema.UserAPIKey.Table, keyColumns)

	_, err := repository.db.Exec(context, query,
		key.ID,
		key.Name,
		key.Prefix,
		key.Fingerprint,
		key.SecretHash,
		key.UserID,
		key.StoreID,
		key.Permissions,
		key.IsActive,
		key.ExpiresAt,
		key.LastUsedAt,
		key.CreatedAt,
		key.UpdatedAt,
	)
	if err != nil {
		// A fingerprint collision means the RNG repeated itself, never a client error.
		if dberr.IsUniqueViolation(err) {
			return fmt.Errorf("create_api_key: fingerprint collision: %w", err)
		}
		return dberr.Wrap(err, resourceAPIKey, "create_api_key")
	}
	return nil
}

// ListByUser returns every key of userID, newest first.
func (repository *PostgresRepository) ListByUser(context context.Context, userID string) ([]*APIKey, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s DESC`,
		keyColumns, schema.UserAPIKey.Table, schema.UserAPIKey.UserID, schema.UserAPIKey.CreatedAt)

	rows, err := repository.db.Query(context, query, userID)
	if err != nil {
		return nil, dberr.Wrap(err, resourceAPIKey, "list_api_keys")
	}
	defer rows.Close()

	keys := make([]*APIKey, 0)
	for rows.Next() {
		key, err := scanKey(rows)
		if err != nil {
			return nil, dberr.Wrap(err, resourceAPIKey, "scan_api_key")
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, resourceAPIKey, "list_api_keys")
	}
	return keys, nil
}

// FindByID returns a key owned by userID.
func (repository *PostgresRepository) FindByID(context context.Context, userID, id string) (*APIKey, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s = $2`,
		keyColumns, schema.UserAPIKey.Table, schema.UserAPIKey.ID, schema.UserAPIKey.UserID)

	key, err := scanKey(repository.db.QueryRow(context, query, id, userID))
	if err != nil {
		return nil, dberr.Wrap(err, resourceAPIKey, "find_api_key")
	}
	return key, nil
}

// FindByFingerprint is the O(1) lookup behind key resolution.
func (repository *PostgresRepository) FindByFingerprint(context context.Context, fingerprint string) (*APIKey, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		keyColumns, schema.UserAPIKey.Table, schema.UserAPIKey.Fingerprint)

	key, err := scanKey(repository.db.QueryRow(context, query, fingerprint))
	if err != nil {
		return nil, dberr.Wrap(err, resourceAPIKey, "find_api_key_by_fingerprint")
	}
	return key, nil
}

// Update writes the mutable columns.
func (repository *PostgresRepository) Update(context context.Context, key *APIKey) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $3, %s = $4, %s = $5, %s = $6, %s = $7 WHERE %s = $1 AND %s = $2`,
		schema.UserAPIKey.Table,
		schema.UserAPIKey.Name,
		schema.UserAPIKey.Permissions,
		schema.UserAPIKey.IsActive,
		schema.UserAPIKey.ExpiresAt,
		schema.UserAPIKey.UpdatedAt,
		schema.UserAPIKey.ID,
		schema.UserAPIKey.UserID,
	)

	tag, err := repository.db.Exec(context, query,
		key.ID, key.UserID, key.Name, key.Permissions, key.IsActive, key.ExpiresAt, key.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, resourceAPIKey, "update_api_key")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, resourceAPIKey, "update_api_key")
	}
	return nil
}

// Delete removes a key owned by userID.
func (repository *PostgresRepository) Delete(context context.Context, userID, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`,
		schema.UserAPIKey.Table, schema.UserAPIKey.ID, schema.UserAPIKey.UserID)

	tag, err := repository.db.Exec(context, query, id, userID)
	if err != nil {
		return dberr.Wrap(err, resourceAPIKey, "delete_api_key")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, resourceAPIKey, "delete_api_key")
	}
	return nil
}

// TouchLastUsed stamps last_used_at without touching updated_at.
func (repository *PostgresRepository) TouchLastUsed(context context.Context, id string, at time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1`,
		schema.UserAPIKey.Table, schema.UserAPIKey.LastUsedAt, schema.UserAPIKey.ID)

	_, err := repository.db.Exec(context, query, id, at)
	return dberr.Wrap(err, resourceAPIKey, "touch_api_key")
}
