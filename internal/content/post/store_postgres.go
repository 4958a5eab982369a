// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package post

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/apperr"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/database/schema"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/dberr"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/postgres"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/pkg/pagination"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/pkg/query"
)

const resourcePost = "Post"

// errSlugTaken is the client-facing conflict for a duplicate slug.
var errSlugTaken = apperr.Conflict("Slug is already in use")

// PostgresRepository implements [Repository] on content.post.
type PostgresRepository struct {
	db postgres.DB
}

// NewPostgresRepository constructs a new [PostgresRepository].
func NewPostgresRepository(db postgres.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var postColumns = strings.Join(schema.ContentPost.Columns(), ", ")

func scanPost(row pgx.Row) (*Post, error) {
	post := &Post{}
	err := row.Scan(
		&post.ID,
		&post.Title,
		&post.Slug,
		&post.Body,
		&post.Status,
		&post.AuthorID,
		&post.PublishedAt,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return post, nil
}

// Create inserts a post.
func (repository *PostgresRepository) Create(context context.Context, post *Post) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		schema.ContentPost.Table, postColumns)

	_, err := repository.db.Exec(context, query,
		post.ID,
		post.Title,
		post.Slug,
		post.Body,
		post.Status,
		post.AuthorID,
		post.PublishedAt,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if dberr.IsUniqueViolation(err) {
		return errSlugTaken
	}
	return dberr.Wrap(err, resourcePost, "create_post")
}

// FindByID returns one post.
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Post, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, postColumns, schema.ContentPost.Table, schema.ContentPost.ID)

	post, err := scanPost(repository.db.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, resourcePost, "find_post")
	}
	return post, nil
}

// List returns a filtered page.
func (repository *PostgresRepository) List(context context.Context, filter Filter, page pagination.Params) ([]*Post, int, error) {
	table := schema.ContentPost
	conditions := query.New().
		AddIf(filter.Status != "", table.Status+" = ?", filter.Status).
		AddIf(filter.VisibleTo != "", "("+table.Status+" = ? OR "+table.AuthorID+" = ?)", StatusPublished, filter.VisibleTo)

	var total int
	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s%s`, table.Table, conditions.Clause())
	if err := repository.db.QueryRow(context, countQuery, conditions.Args()...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, resourcePost, "count_posts")
	}

	listQuery := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY %s DESC LIMIT %s OFFSET %s`,
		postColumns, table.Table, conditions.Clause(), table.CreatedAt,
		conditions.Next(page.PerPage), conditions.Next(page.Offset()))

	rows, err := repository.db.Query(context, listQuery, conditions.Args()...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, resourcePost, "list_posts")
	}
	defer rows.Close()

	posts := make([]*Post, 0, page.PerPage)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, resourcePost, "scan_post")
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, resourcePost, "list_posts")
	}
	return posts, total, nil
}

// Update writes every mutable column.
func (repository *PostgresRepository) Update(context context.Context, post *Post) error {
	table := schema.ContentPost
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = $7 WHERE %s = $1`,
		table.Table, table.Title, table.Slug, table.Body, table.Status, table.PublishedAt, table.UpdatedAt, table.ID)

	tag, err := repository.db.Exec(context, query,
		post.ID, post.Title, post.Slug, post.Body, post.Status, post.PublishedAt, post.UpdatedAt)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return errSlugTaken
		}
		return dberr.Wrap(err, resourcePost, "update_post")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, resourcePost, "update_post")
	}
	return nil
}

// Delete removes a post.
func (repository *PostgresRepository) Delete(context context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.ContentPost.Table, schema.ContentPost.ID)

	tag, err := repository.db.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, resourcePost, "delete_post")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, resourcePost, "delete_post")
	}
	return nil
}
