// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package respond_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/apperr"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/ctxutil"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/respond"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/pkg/pagination"
)

func requestWithLogger(logs *bytes.Buffer) *http.Request {
	ctx := ctxutil.WithLogger(context.Background(), slog.New(slog.NewJSONHandler(logs, nil)))
	ctx = ctxutil.WithRequestID(ctx, "req-1")
	return httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
}

func TestError_AppError(t *testing.T) {
	logs := &bytes.Buffer{}
	recorder := httptest.NewRecorder()

	err := fmt.Errorf("handler: %w", apperr.ValidationError("Invalid input", apperr.FieldError{Field: "title", Message: "required"}))
	respond.Error(recorder, requestWithLogger(logs), err)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.JSONEq(t, `{"error":"Invalid input","code":"VALIDATION_ERROR","details":[{"field":"title","message":"required"}]}`, recorder.Body.String())
	assert.Empty(t, logs.String())
}

func TestError_UnknownErrorIsHidden(t *testing.T) {
	logs := &bytes.Buffer{}
	recorder := httptest.NewRecorder()

	respond.Error(recorder, requestWithLogger(logs), errors.New("pq: relation missing"))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.NotContains(t, recorder.Body.String(), "relation")
	assert.Contains(t, logs.String(), "api_server_error")
	assert.Contains(t, logs.String(), "relation missing")
	assert.Contains(t, logs.String(), "req-1")
}

func TestError_RetryAfterHeader(t *testing.T) {
	recorder := httptest.NewRecorder()

	respond.Error(recorder, requestWithLogger(&bytes.Buffer{}), apperr.RateLimited(12))

	assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
	assert.Equal(t, "12", recorder.Header().Get("Retry-After"))
}

func TestPaginated(t *testing.T) {
	recorder := httptest.NewRecorder()
	params := pagination.New(2, 1)

	respond.Paginated(recorder, []string{"b"}, pagination.NewMeta(params, 3))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/json; charset=utf-8", recorder.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":["b"],"meta":{"page":2,"per_page":1,"total":3,"total_pages":3}}`, recorder.Body.String())
}
