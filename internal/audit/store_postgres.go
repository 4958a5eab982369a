// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/database/schema"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/dberr"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/postgres"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/pkg/pagination"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/pkg/query"
)

const resourceAuditLog = "Audit log"

// PostgresRepository implements [Repository] on system.auditlog.
type PostgresRepository struct {
	db postgres.DB
}

// NewPostgresRepository constructs a new [PostgresRepository].
func NewPostgresRepository(db postgres.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// entrySelect reads entries joined with their actor. Aliases: a = auditlog, u = account.
var entrySelect = func() string {
	columns := make([]string, 0, 12)
	for _, column := range schema.SystemAuditLog.Columns() {
		columns = append(columns, "a."+column)
	}
	columns = append(columns,
		"u."+schema.UserAccount.ID,
		"u."+schema.UserAccount.Username,
		"u."+schema.UserAccount.Email,
	)
	return fmt.Sprintf(`SELECT %s FROM %s a LEFT JOIN %s u ON u.%s = a.%s`,
		strings.Join(columns, ", "),
		schema.SystemAuditLog.Table,
		schema.UserAccount.Table,
		schema.UserAccount.ID,
		schema.SystemAuditLog.UserID,
	)
}()

func scanEntry(row pgx.Row) (*Entry, error) {
	var (
		entry                   = &Entry{}
		userID, username, email *string
	)
	err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.Action,
		&entry.ResourceType,
		&entry.ResourceID,
		&entry.IPAddress,
		&entry.UserAgent,
		&entry.Details,
		&entry.CreatedAt,
		&userID,
		&username,
		&email,
	)
	if err != nil {
		return nil, err
	}
	if userID != nil {
		entry.User = &UserRef{ID: *userID}
		if username != nil {
			entry.User.Username = *username
		}
		if email != nil {
			entry.User.Email = *email
		}
	}
	return entry, nil
}

// Insert appends one row.
func (repository *PostgresRepository) Insert(context context.Context, entry *Entry) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		schema.SystemAuditLog.Table, strings.Join(schema.SystemAuditLog.Columns(), ", "))

	_, err := repository.db.Exec(context, query,
		entry.ID,
		entry.UserID,
		entry.Action,
		entry.ResourceType,
		entry.ResourceID,
		entry.IPAddress,
		entry.UserAgent,
		entry.Details,
		entry.CreatedAt,
	)
	return dberr.Wrap(err, resourceAuditLog, "insert_audit_log")
}

// where translates a filter into a parameterised clause on the "a" alias.
func where(filter Filter) *query.Builder {
	return query.New().
		AddIf(filter.UserID != "", "a."+schema.SystemAuditLog.UserID+" = ?", filter.UserID).
		AddIf(filter.Action != "", "a."+schema.SystemAuditLog.Action+" = ?", filter.Action).
		AddIf(filter.ResourceType != "", "a."+schema.SystemAuditLog.ResourceType+" = ?", filter.ResourceType).
		AddIf(filter.From != nil, "a."+schema.SystemAuditLog.CreatedAt+" >= ?", filter.From).
		AddIf(filter.To != nil, "a."+schema.SystemAuditLog.CreatedAt+" <= ?", filter.To)
}

// List returns a filtered page ordered by created_at DESC.
func (repository *PostgresRepository) List(context context.Context, filter Filter, page pagination.Params) ([]*Entry, int, error) {
	conditions := where(filter)

	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s a%s`, schema.SystemAuditLog.Table, conditions.Clause())
	var total int
	if err := repository.db.QueryRow(context, countQuery, conditions.Args()...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, resourceAuditLog, "count_audit_logs")
	}

	listQuery := fmt.Sprintf(`%s%s ORDER BY a.%s DESC, a.%s DESC LIMIT %s OFFSET %s`,
		entrySelect,
		conditions.Clause(),
		schema.SystemAuditLog.CreatedAt,
		schema.SystemAuditLog.ID,
		conditions.Next(page.PerPage),
		conditions.Next(page.Offset()),
	)

	rows, err := repository.db.Query(context, listQuery, conditions.Args()...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, resourceAuditLog, "list_audit_logs")
	}
	defer rows.Close()

	entries := make([]*Entry, 0, page.PerPage)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, resourceAuditLog, "scan_audit_log")
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, resourceAuditLog, "list_audit_logs")
	}
	return entries, total, nil
}

// FindByID returns one entry with its actor.
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Entry, error) {
	query := fmt.Sprintf(`%s WHERE a.%s = $1`, entrySelect, schema.SystemAuditLog.ID)

	entry, err := scanEntry(repository.db.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, resourceAuditLog, "find_audit_log")
	}
	return entry, nil
}

// Stats runs the totals and the two GROUP BY breakdowns over [from, to].
func (repository *PostgresRepository) Stats(context context.Context, from, to time.Time) (*Stats, error) {
	table := schema.SystemAuditLog
	stats := &Stats{ByAction: map[string]int64{}, ByResource: map[string]int64{}}

	totalsQuery := fmt.Sprintf(`SELECT count(*), count(DISTINCT %s) FROM %s WHERE %s BETWEEN $1 AND $2`,
		table.UserID, table.Table, table.CreatedAt)
	if err := repository.db.QueryRow(context, totalsQuery, from, to).Scan(&stats.TotalLogs, &stats.UniqueUsers); err != nil {
		return nil, dberr.Wrap(err, resourceAuditLog, "audit_stats_totals")
	}

	if err := repository.groupCount(context, table.Action, from, to, stats.ByAction); err != nil {
		return nil, err
	}
	if err := repository.groupCount(context, table.ResourceType, from, to, stats.ByResource); err != nil {
		return nil, err
	}
	return stats, nil
}

func (repository *PostgresRepository) groupCount(context context.Context, column string, from, to time.Time, into map[string]int64) error {
	table := schema.SystemAuditLog
	query := fmt.Sprintf(`SELECT %s, count(*) FROM %s WHERE %s BETWEEN $1 AND $2 GROUP BY %s`,
		column, table.Table, table.CreatedAt, column)

	rows, err := repository.db.Query(context, query, from, to)
	if err != nil {
		return dberr.Wrap(err, resourceAuditLog, "audit_stats_"+column)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key   string
			count int64
		)
		if err := rows.Scan(&key, &count); err != nil {
			return dberr.Wrap(err, resourceAuditLog, "audit_stats_"+column)
		}
		into[key] = count
	}
	return dberr.Wrap(rows.Err(), resourceAuditLog, "audit_stats_"+column)
}
