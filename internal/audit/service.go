// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/clock"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/validate"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/pkg/pagination"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/pkg/uuid"
)

// FailureCounter counts audit writes that did not reach storage.
type FailureCounter interface {
	AuditWriteFailed()
}

// Service implements audit recording and querying.
type Service struct {
	repository Repository
	clock      clock.Clock
	logger     *slog.Logger
	failures   FailureCounter
}

// NewService constructs a new [Service]. failures may be nil.
func NewService(repository Repository, clk clock.Clock, logger *slog.Logger, failures FailureCounter) *Service {
	return &Service{
		repository: repository,
		clock:      clk,
		logger:     logger,
		failures:   failures,
	}
}

/*
Record appends an entry.

It has no error result: the audit trail must never break the operation being
audited. Failures are logged as "audit_record_failed" and counted.
*/
func (service *Service) Record(ctx context.Context, record Record) {
	entry := &Entry{
		ID:           uuid.New(),
		UserID:       optional(record.UserID),
		Action:       record.Action,
		ResourceType: record.ResourceType,
		ResourceID:   optional(record.ResourceID),
		IPAddress:    record.IP,
		UserAgent:    record.UserAgent,
		Details:      record.Details,
		CreatedAt:    service.clock.Now().UTC(),
	}
	if entry.Details == nil {
		entry.Details = map[string]any{}
	}

	if err := service.repository.Insert(ctx, entry); err != nil {
		service.logger.ErrorContext(ctx, "audit_record_failed",
			slog.String("action", record.Action),
			slog.String("resource_type", record.ResourceType),
			slog.String("error", err.Error()),
		)
		if service.failures != nil {
			service.failures.AuditWriteFailed()
		}
	}
}

// List returns one page of entries matching filter, newest first.
func (service *Service) List(ctx context.Context, filter Filter, page pagination.Params) ([]*Entry, int, error) {
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, 0, validate.RequiredError(FieldFrom, "Must not be after 'to'")
	}
	return service.repository.List(ctx, filter, pagination.New(page.Page, page.PerPage))
}

// Get returns a single entry.
func (service *Service) Get(ctx context.Context, id string) (*Entry, error) {
	return service.repository.FindByID(ctx, id)
}

/*
Stats aggregates the trailing periodDays days, ending now.

Zero selects [DefaultPeriodDays]; anything outside [MinPeriodDays, MaxPeriodDays]
is a validation error.
*/
func (service *Service) Stats(ctx context.Context, periodDays int) (*Stats, error) {
	if periodDays == 0 {
		periodDays = DefaultPeriodDays
	}

	validator := &validate.Validator{}
	if err := validator.Range(FieldPeriodDays, periodDays, MinPeriodDays, MaxPeriodDays).Err(); err != nil {
		return nil, err
	}

	to := service.clock.Now().UTC()
	from := to.Add(-time.Duration(periodDays) * 24 * time.Hour)

	stats, err := service.repository.Stats(ctx, from, to)
	if err != nil {
		return nil, err
	}
	stats.PeriodDays = periodDays
	return stats, nil
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
