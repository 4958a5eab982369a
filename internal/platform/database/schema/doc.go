// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

// Package schema names every table and column the postgres repositories touch.
//
// Queries are assembled from these definitions so that a column rename is a
// one-line change here plus a migration.
package schema
