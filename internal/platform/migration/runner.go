// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

// Package migration brings the users, system and content schemas up to date
// at startup with golang-migrate. The memory storage driver never calls it.
package migration

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/data"
)

// Status is the schema version before and after a run.
type Status struct {
	From    uint
	To      uint
	Changed bool
}

// RunUp applies pending migrations. An empty dir uses the migrations embedded
// in the binary; otherwise .sql files are read from dir on disk. A dirty
// schema is refused rather than forced.
func RunUp(dsn, dir string, logger *slog.Logger) (Status, error) {
	migrator, err := open(dsn, dir)
	if err != nil {
		return Status{}, err
	}
	defer func() {
		sourceErr, dbErr := migrator.Close()
		if err := errors.Join(sourceErr, dbErr); err != nil {
			logger.Warn("migration_close_failed", slog.Any("error", err))
		}
	}()
	migrator.Log = migrateLogger{logger: logger}

	from, err := version(migrator)
	if err != nil {
		return Status{}, err
	}

	switch err := migrator.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("migration_up_to_date", slog.Uint64("version", uint64(from)))
		return Status{From: from, To: from}, nil
	case err != nil:
		return Status{}, fmt.Errorf("migration: up from version %d: %w", from, err)
	}

	to, err := version(migrator)
	if err != nil {
		return Status{}, err
	}
	logger.Info("migration_applied",
		slog.Uint64("from_version", uint64(from)),
		slog.Uint64("to_version", uint64(to)),
	)
	return Status{From: from, To: to, Changed: true}, nil
}

func open(dsn, dir string) (*migrate.Migrate, error) {
	if dir != "" {
		migrator, err := migrate.New("file://"+dir, ToPgx5DSN(dsn))
		if err != nil {
			return nil, fmt.Errorf("migration: open %s: %w", dir, err)
		}
		return migrator, nil
	}

	source, err := iofs.New(data.Migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("migration: embedded source: %w", err)
	}
	migrator, err := migrate.NewWithSourceInstance("iofs", source, ToPgx5DSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("migration: open embedded: %w", err)
	}
	return migrator, nil
}

// version treats a fresh database as version 0.
func version(migrator *migrate.Migrate) (uint, error) {
	current, dirty, err := migrator.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("migration: read version: %w", err)
	case dirty:
		return 0, fmt.Errorf("migration: schema is dirty at version %d", current)
	}
	return current, nil
}

// ToPgx5DSN switches postgres:// and postgresql:// URLs to the pgx5:// scheme
// registered by the pgx/v5 driver. Anything else is returned as is.
func ToPgx5DSN(dsn string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if rest, found := strings.CutPrefix(dsn, prefix); found {
			return "pgx5://" + rest
		}
	}
	return dsn
}

type migrateLogger struct {
	logger *slog.Logger
}

func (l migrateLogger) Printf(format string, args ...any) {
	l.logger.Debug("migration_progress", slog.String("detail", strings.TrimSpace(fmt.Sprintf(format, args...))))
}

func (l migrateLogger) Verbose() bool { return false }
