// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

// Package pointer holds generic helpers for optional values.
//
// Optional fields in patches (nil means "leave unchanged") and nullable
// columns (expires_at, last_used_at) are modelled as pointers throughout
// the platform; these helpers keep that readable.
package pointer

// To returns a pointer to a copy of v.
func To[T any](v T) *T {
	return &v
}

// Val dereferences p, or returns the zero value when p is nil.
func Val[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// Fallback dereferences p, or returns fallback when p is nil.
func Fallback[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}

// Clone returns a pointer to a fresh copy of *p, or nil.
//
// Stores use it so callers never share a nullable timestamp with stored state.
func Clone[T any](p *T) *T {
	if p == nil {
		return nil
	}
	return To(*p)
}
