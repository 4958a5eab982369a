// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package migration_test

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/data"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/migration"
)

func TestToPgx5DSN(t *testing.T) {
	tests := map[string]string{
		"postgres://cms:cms@db:5432/cms?sslmode=disable": "pgx5://cms:cms@db:5432/cms?sslmode=disable",
		"postgresql://cms@db/cms":                        "pgx5://cms@db/cms",
		"pgx5://cms@db/cms":                              "pgx5://cms@db/cms",
		"host=db user=cms":                               "host=db user=cms",
	}

	for in, want := range tests {
		assert.Equal(t, want, migration.ToPgx5DSN(in), in)
	}
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(data.Migrations, "migrations")
	require.NoError(t, err)

	ups, downs := 0, 0
	for _, entry := range entries {
		switch {
		case strings.HasSuffix(entry.Name(), ".up.sql"):
			ups++
		case strings.HasSuffix(entry.Name(), ".down.sql"):
			downs++
		}
	}
	assert.Equal(t, 3, ups)
	assert.Equal(t, ups, downs)
}
