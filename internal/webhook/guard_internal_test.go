// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package webhook

import (
	"io"
	"log/slog"
	"net/http"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCheckAddr(t *testing.T) {
	blocked := []string{"127.0.0.1", "::1", "10.1.2.3", "172.16.0.1", "192.168.1.1", "169.254.169.254", "0.0.0.0", "fe80::1", "::ffff:127.0.0.1", "224.0.0.1"}
	for _, raw := range blocked {
		assert.ErrorIs(t, checkAddr(netip.MustParseAddr(raw)), ErrBlockedTarget, raw)
	}

	for _, raw := range []string{"93.184.216.34", "2606:4700::1111"} {
		assert.NoError(t, checkAddr(netip.MustParseAddr(raw)), raw)
	}
}

func TestDialControl(t *testing.T) {
	assert.ErrorIs(t, TargetGuard{}.dialControl("tcp", "127.0.0.1:80", nil), ErrBlockedTarget)
	assert.ErrorIs(t, TargetGuard{}.dialControl("tcp", "garbage", nil), ErrBlockedTarget)
	assert.NoError(t, TargetGuard{}.dialControl("tcp", "93.184.216.34:443", nil))
	assert.NoError(t, TargetGuard{AllowPrivate: true}.dialControl("tcp", "127.0.0.1:80", nil))
}

func TestRetryDelay(t *testing.T) {
	base := time.Second

	for attempt := 1; attempt <= 8; attempt++ {
		delay := retryDelay("01HZX", attempt, base)
		floor := min(base<<(attempt-1), maxRetryDelay)
		assert.GreaterOrEqual(t, delay, floor, attempt)
		assert.LessOrEqual(t, delay, floor+base/5, attempt)
	}

	assert.Equal(t, retryDelay("01HZX", 3, base), retryDelay("01HZX", 3, base))
	assert.Equal(t, 4*time.Nanosecond, retryDelay("x", 3, time.Nanosecond))
}

func TestDispatcher_DialsTargetsDirectly(t *testing.T) {
	t.Setenv("HTTPS_PROXY", "http://192.0.2.1:3128")
	t.Setenv("HTTP_PROXY", "http://192.0.2.1:3128")

	dispatcher := NewDispatcher(nil, Options{Timeout: time.Second}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	transport, ok := dispatcher.client.Transport.(*http.Transport)
	if assert.True(t, ok) {
		assert.Nil(t, transport.Proxy)
	}
}
