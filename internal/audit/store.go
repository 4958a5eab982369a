// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package audit

import (
	"context"
	"time"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/pkg/pagination"
)

// Repository defines the data access contract for the audit log.
type Repository interface {

	// Insert appends an entry. Entries are never updated.
	Insert(ctx context.Context, entry *Entry) error

	/*
		List returns one page of entries matching filter, newest first, with the
		total count of matches.
	*/
	List(ctx context.Context, filter Filter, page pagination.Params) ([]*Entry, int, error)

	// FindByID returns a single entry with its actor resolved.
	FindByID(ctx context.Context, id string) (*Entry, error)

	// Stats aggregates entries created within [from, to].
	Stats(ctx context.Context, from, to time.Time) (*Stats, error)
}
