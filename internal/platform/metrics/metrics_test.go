// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/metrics"
)

func TestInstrument_UsesRoutePattern(t *testing.T) {
	m := metrics.New()

	router := chi.NewRouter()
	router.Use(m.Instrument)
	router.Get("/posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	router.Handle("/metrics", m.Handler())

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/posts/42", nil))
	require.Equal(t, http.StatusTeapot, recorder.Code)

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(recorder.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `cms_http_requests_total{method="GET",route="/posts/{id}",status="418"} 1`)
	assert.NotContains(t, string(body), "/posts/42")
}

func TestCounters(t *testing.T) {
	m := metrics.New()

	m.RateLimited("auth")
	m.WebhookAttempt(true, 10*time.Millisecond)
	m.WebhookAttempt(false, time.Second)
	m.WebhookDropped()
	m.AuditWriteFailed()

	count, err := testutil.GatherAndCount(m.Registry(),
		"cms_rate_limit_denied_total",
		"cms_webhook_deliveries_total",
		"cms_webhook_dropped_total",
		"cms_audit_write_failures_total",
	)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestObserveDBPool_ReadsAtScrape(t *testing.T) {
	m := metrics.New()
	idle := int32(3)
	m.ObserveDBPool(func() (int32, int32, int32) { return 5, idle, 25 })

	idle = 1
	expected := `
# HELP cms_db_pool_idle_connections Idle connections.
# TYPE cms_db_pool_idle_connections gauge
cms_db_pool_idle_connections 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "cms_db_pool_idle_connections"))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.RateLimited("general")
		m.WebhookAttempt(true, 0)
		m.WebhookDropped()
		m.AuditWriteFailed()
		m.ObserveDBPool(func() (int32, int32, int32) { return 0, 0, 0 })
	})
	handler := m.Instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	assert.NotNil(t, handler)
}
