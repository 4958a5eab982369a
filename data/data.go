// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

// Package data embeds the SQL migrations so the binary can migrate without
// the source tree on disk.
package data

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS
