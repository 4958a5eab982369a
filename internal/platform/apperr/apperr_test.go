// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package apperr_test

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/apperr"
)

func TestAppError_StatusMapping(t *testing.T) {
	tests := []struct {
		err    *apperr.AppError
		status int
		code   string
	}{
		{apperr.Unauthorized("x"), http.StatusUnauthorized, "UNAUTHORIZED"},
		{apperr.Forbidden("x"), http.StatusForbidden, "FORBIDDEN"},
		{apperr.NotFound("Session"), http.StatusNotFound, "NOT_FOUND"},
		{apperr.Conflict("x"), http.StatusConflict, "CONFLICT"},
		{apperr.BadRequest("x"), http.StatusBadRequest, "BAD_REQUEST"},
		{apperr.ValidationError("x"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{apperr.RateLimited(3), http.StatusTooManyRequests, "RATE_LIMITED"},
		{apperr.Internal(errors.New("boom")), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
			assert.Equal(t, tt.code, tt.err.Code)
		})
	}
}

func TestRateLimited_RetryAfterFloor(t *testing.T) {
	assert.Equal(t, 1, apperr.RateLimited(0).RetryAfter)
	assert.Equal(t, 42, apperr.RateLimited(42).RetryAfter)
}

func TestAs_TraversesWrapping(t *testing.T) {
	wrapped := fmt.Errorf("service: %w", apperr.NotFound("Webhook"))

	assert.True(t, apperr.IsAppError(wrapped))
	assert.True(t, apperr.HasStatus(wrapped, http.StatusNotFound))
	assert.Equal(t, "Webhook not found", apperr.As(wrapped).Message)
	assert.Nil(t, apperr.As(errors.New("plain")))
}

func TestLogValue_IncludesCauseNotDetails(t *testing.T) {
	err := apperr.Internal(errors.New("pool exhausted"))

	var buf bytes.Buffer
	slog.New(slog.NewJSONHandler(&buf, nil)).Error("failed", slog.Any("error", err))

	assert.Contains(t, buf.String(), `"code":"INTERNAL_ERROR"`)
	assert.Contains(t, buf.String(), `"cause":"pool exhausted"`)

	buf.Reset()
	invalid := apperr.ValidationError("bad", apperr.FieldError{Field: "password", Message: "too short"})
	slog.New(slog.NewJSONHandler(&buf, nil)).Warn("rejected", slog.Any("error", invalid))
	assert.NotContains(t, buf.String(), "password")
}
