// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package webhook

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

const resourceWebhook = "Webhook"

// PostgresRepository implements [Repository] on system.webhook.
type PostgresRepository struct {
	db postgres.DB
}

// NewPostgresRepository constructs a new [PostgresRepository].
func NewPostgresRepository(db postgres.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var webhookColumns = strings.Join(schema.SystemWebhook.Columns(), ", ")

func scanSubscription(row pgx.Row) (*Subscription, error) {
	subscription := &Subscription{}
	err := row.Scan(
		&subscription.ID,
		&subscription.Name,
		&subscription.URL,
		&subscription.Secret,
		&subscription.IsActive,
		&subscription.Events,
		&subscription.Headers,
		&subscription.TotalCalls,
		&subscription.FailedCalls,
		&subscription.LastCalledAt,
		&subscription.CreatedAt,
		&subscription.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return subscription, nil
}

func (repository *PostgresRepository) collect(rows pgx.Rows, action string) ([]*Subscription, error) {
	defer rows.Close()

	subscriptions := make([]*Subscription, 0)
	for rows.Next() {
		subscription, err := scanSubscription(rows)
		if err != nil {
			return nil, dberr.Wrap(err, resourceWebhook, action)
		}
		subscriptions = append(subscriptions, subscription)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, resourceWebhook, action)
	}
	return subscriptions, nil
}

// Create inserts a subscription with zeroed counters.
func (repository *PostgresRepository) Create(context context.Context, subscription *Subscription) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		schema.SystemWebhook.Table, webhookColumns)

	_, err := repository.db.Exec(context, query,
		subscription.ID,
		subscription.Name,
		subscription.URL,
		subscription.Secret,
		subscription.IsActive,
		subscription.Events,
		subscription.Headers,
		subscription.TotalCalls,
		subscription.FailedCalls,
		subscription.LastCalledAt,
		subscription.CreatedAt,
		subscription.UpdatedAt,
	)
	return dberr.Wrap(err, resourceWebhook, "create_webhook")
}

// List returns every subscription, newest first.
func (repository *PostgresRepository) List(context context.Context) ([]*Subscription, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY %s DESC`,
		webhookColumns, schema.SystemWebhook.Table, schema.SystemWebhook.CreatedAt)

	rows, err := repository.db.Query(context, query)
	if err != nil {
		return nil, dberr.Wrap(err, resourceWebhook, "list_webhooks")
	}
	return repository.collect(rows, "list_webhooks")
}

// FindByID returns one subscription.
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Subscription, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		webhookColumns, schema.SystemWebhook.Table, schema.SystemWebhook.ID)

	subscription, err := scanSubscription(repository.db.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, resourceWebhook, "find_webhook")
	}
	return subscription, nil
}

// Update writes the configuration columns.
func (repository *PostgresRepository) Update(context context.Context, subscription *Subscription) error {
	table := schema.SystemWebhook
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = $7, %s = $8 WHERE %s = $1`,
		table.Table, table.Name, table.URL, table.Secret, table.IsActive, table.Events, table.Headers, table.UpdatedAt, table.ID)

	tag, err := repository.db.Exec(context, query,
		subscription.ID,
		subscription.Name,
		subscription.URL,
		subscription.Secret,
		subscription.IsActive,
		subscription.Events,
		subscription.Headers,
		subscription.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, resourceWebhook, "update_webhook")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, resourceWebhook, "update_webhook")
	}
	return nil
}

// Delete removes a subscription.
func (repository *PostgresRepository) Delete(context context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.SystemWebhook.Table, schema.SystemWebhook.ID)

	tag, err := repository.db.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, resourceWebhook, "delete_webhook")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, resourceWebhook, "delete_webhook")
	}
	return nil
}

// ListActiveForEvent uses the GIN index on events.
func (repository *PostgresRepository) ListActiveForEvent(context context.Context, event string) ([]*Subscription, error) {
	table := schema.SystemWebhook
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s AND %s @> ARRAY[$1]::text[] ORDER BY %s`,
		webhookColumns, table.Table, table.IsActive, table.Events, table.CreatedAt)

	rows, err := repository.db.Query(context, query, event)
	if err != nil {
		return nil, dberr.Wrap(err, resourceWebhook, "list_webhooks_for_event")
	}
	return repository.collect(rows, "list_webhooks_for_event")
}

// RecordAttempt increments the counters in a single statement.
func (repository *PostgresRepository) RecordAttempt(context context.Context, id string, at time.Time, failed bool) error {
	table := schema.SystemWebhook
	query := fmt.Sprintf(`UPDATE %s SET %s = %s + 1, %s = %s + CASE WHEN $3::boolean THEN 1 ELSE 0 END, %s = $2 WHERE %s = $1`,
		table.Table,
		table.TotalCalls, table.TotalCalls,
		table.FailedCalls, table.FailedCalls,
		table.LastCalledAt,
		table.ID,
	)

	_, err := repository.db.Exec(context, query, id, at, failed)
	return dberr.Wrap(err, resourceWebhook, "record_webhook_attempt")
}
