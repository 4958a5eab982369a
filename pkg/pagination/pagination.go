// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

// Package pagination parses page-based list parameters and builds the
// "meta" block of paginated responses.
package pagination

import (
	"net/http"
	"strconv"
)

const (
	DefaultPage    = 1
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Params is a 1-indexed page request. Construct with [New] or [FromRequest]
// so the bounds hold.
type Params struct {
	Page    int
	PerPage int
}

// New clamps page and perPage into range.
func New(page, perPage int) Params {
	if page < 1 {
		page = DefaultPage
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	return Params{Page: page, PerPage: min(perPage, MaxPerPage)}
}

// FromRequest reads page and per_page, accepting limit as an alias of per_page.
// Unparseable values fall back to defaults.
func FromRequest(r *http.Request) Params {
	query := r.URL.Query()
	perPage := intParam(query.Get("per_page"), 0)
	if perPage == 0 {
		perPage = intParam(query.Get("limit"), DefaultPerPage)
	}
	return New(intParam(query.Get("page"), DefaultPage), perPage)
}

// Offset is the number of rows skipped before this page.
func (p Params) Offset() int {
	return max(p.Page-1, 0) * p.PerPage
}

// Slice returns the window of items this page covers, or an empty slice
// when the page starts past the end.
func Slice[T any](items []T, p Params) []T {
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	return items[start:min(start+p.PerPage, len(items))]
}

type Meta struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func NewMeta(p Params, total int) Meta {
	meta := Meta{Page: p.Page, PerPage: p.PerPage, Total: total}
	if p.PerPage > 0 {
		meta.TotalPages = (total + p.PerPage - 1) / p.PerPage
	}
	return meta
}

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
