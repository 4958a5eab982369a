// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

/*
Package apperr carries client-facing failures from services to the HTTP layer.

Services return an [*AppError] for anything the caller should see. Anything
else reaching a handler is rendered as INTERNAL_ERROR and logged with its
cause. Messages are safe to show; causes never leave the process.
*/
package apperr

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

// Machine-readable codes rendered in the "code" field of error envelopes.
const (
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeBadRequest   = "BAD_REQUEST"
	CodeValidation   = "VALIDATION_ERROR"
	CodeRateLimited  = "RATE_LIMITED"
	CodeInternal     = "INTERNAL_ERROR"
)

// AppError is a failure with an HTTP status and a client-safe message.
type AppError struct {
	Code       string       `json:"code"`
	Message    string       `json:"error"`
	HTTPStatus int          `json:"-"`
	Details    []FieldError `json:"details,omitempty"`

	// Cause is logged server-side only.
	Cause error `json:"-"`
	// RetryAfter is whole seconds, rendered as the Retry-After header.
	RetryAfter int `json:"-"`
}

// FieldError is one failed field in a VALIDATION_ERROR response.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string { return e.Message }

func (e *AppError) Unwrap() error { return e.Cause }

// LogValue keeps log lines structured without exposing Details payloads.
func (e *AppError) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("code", e.Code),
		slog.Int("status", e.HTTPStatus),
		slog.String("message", e.Message),
	}
	if e.Cause != nil {
		attrs = append(attrs, slog.String("cause", e.Cause.Error()))
	}
	return slog.GroupValue(attrs...)
}

func newError(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// NotFound renders as "<resource> not found".
func NotFound(resource string) *AppError {
	return newError(http.StatusNotFound, CodeNotFound, resource+" not found")
}

func Unauthorized(msg string) *AppError {
	return newError(http.StatusUnauthorized, CodeUnauthorized, msg)
}

func Forbidden(msg string) *AppError {
	return newError(http.StatusForbidden, CodeForbidden, msg)
}

// Conflict covers uniqueness violations such as a taken username or slug.
func Conflict(msg string) *AppError {
	return newError(http.StatusConflict, CodeConflict, msg)
}

// BadRequest is for malformed input that does not belong to a single field.
func BadRequest(msg string) *AppError {
	return newError(http.StatusBadRequest, CodeBadRequest, msg)
}

func ValidationError(msg string, details ...FieldError) *AppError {
	e := newError(http.StatusBadRequest, CodeValidation, msg)
	e.Details = details
	return e
}

// RateLimited never advertises a wait shorter than one second.
func RateLimited(retryAfterSeconds int) *AppError {
	retryAfterSeconds = max(retryAfterSeconds, 1)
	e := newError(http.StatusTooManyRequests, CodeRateLimited,
		fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds))
	e.RetryAfter = retryAfterSeconds
	return e
}

// Internal hides cause behind a generic message.
func Internal(cause error) *AppError {
	e := newError(http.StatusInternalServerError, CodeInternal, "An unexpected error occurred")
	e.Cause = cause
	return e
}

// IsAppError reports whether err's chain holds an [*AppError].
func IsAppError(err error) bool {
	return As(err) != nil
}

// HasStatus reports whether err's chain holds an [*AppError] with the given status.
func HasStatus(err error, status int) bool {
	ae := As(err)
	return ae != nil && ae.HTTPStatus == status
}

// As returns the first [*AppError] in err's chain, or nil.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}
