// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

/*
Package audit records who did what, and answers questions about it.

Entries are append-only. Recording never fails the caller: a storage error is
logged and counted, and the request carries on.
*/
package audit

import "time"

// Entry is one stored audit record.
type Entry struct {
	ID           string         `json:"id"`
	UserID       *string        `json:"user_id"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   *string        `json:"resource_id"`
	IPAddress    string         `json:"ip_address"`
	UserAgent    string         `json:"user_agent"`
	Details      map[string]any `json:"details"`
	CreatedAt    time.Time      `json:"created_at"`

	// User is resolved at read time and is nil for anonymous or deleted actors.
	User *UserRef `json:"user,omitempty"`
}

// UserRef is the actor summary attached to listed entries.
type UserRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Record is the input of [Service.Record].
type Record struct {
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	IP           string
	UserAgent    string
	Details      map[string]any
}

// Filter narrows a listing. Zero values are ignored; From and To are inclusive.
type Filter struct {
	UserID       string
	Action       string
	ResourceType string
	From         *time.Time
	To           *time.Time
}

// Stats summarises the entries of a trailing period.
type Stats struct {
	TotalLogs   int64            `json:"total_logs"`
	UniqueUsers int64            `json:"unique_users"`
	ByAction    map[string]int64 `json:"by_action"`
	ByResource  map[string]int64 `json:"by_resource"`
	PeriodDays  int              `json:"period_days"`
}

// Stats period bounds in days.
const (
	DefaultPeriodDays = 7
	MinPeriodDays     = 1
	MaxPeriodDays     = 365
)

const (
	FieldPeriodDays = "period_days"
	FieldFrom       = "from"
	FieldTo         = "to"
	FieldUserID     = "user_id"
)
