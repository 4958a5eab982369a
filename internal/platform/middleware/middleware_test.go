// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package middleware_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/constants"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/ctxutil"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/middleware"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRequestID(t *testing.T) {
	var seen string
	handler := middleware.RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ctxutil.GetRequestID(r.Context())
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, recorder.Header().Get(constants.HeaderXRequestID))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set(constants.HeaderXRequestID, "client-id")
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	assert.Equal(t, "client-id", seen)
}

// resolveIP runs request through ClientIP and returns what RealIP saw.
func resolveIP(t *testing.T, request *http.Request, trusted ...string) string {
	t.Helper()
	prefixes := make([]netip.Prefix, 0, len(trusted))
	for _, cidr := range trusted {
		prefixes = append(prefixes, netip.MustParsePrefix(cidr))
	}

	var seen string
	handler := middleware.ClientIP(prefixes)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = middleware.RealIP(r)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), request)
	return seen
}

func TestRealIP(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", resolveIP(t, request, "10.0.0.0/8"))
	assert.Equal(t, "10.0.0.1", middleware.RealIP(request))

	request.Header.Set(constants.HeaderXForwardedFor, "203.0.113.7, 10.0.0.2")
	assert.Equal(t, "203.0.113.7", resolveIP(t, request, "10.0.0.0/8"))

	request.Header.Set(constants.HeaderXRealIP, "198.51.100.2")
	assert.Equal(t, "198.51.100.2", resolveIP(t, request, "10.0.0.0/8"))
}

func TestRealIP_UntrustedPeerHeadersIgnored(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.RemoteAddr = "192.0.2.10:4000"
	request.Header.Set(constants.HeaderXRealIP, "198.51.100.2")
	request.Header.Set(constants.HeaderXForwardedFor, "203.0.113.7")

	assert.Equal(t, "192.0.2.10", resolveIP(t, request))
	assert.Equal(t, "192.0.2.10", resolveIP(t, request, "10.0.0.0/8"))
}

func TestRealIP_ForwardedChainStopsAtFirstForeignHop(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.RemoteAddr = "10.0.0.1:5555"
	// The client forged the leftmost entry; 198.51.100.9 is the address our proxy saw.
	request.Header.Set(constants.HeaderXForwardedFor, "1.2.3.4, 198.51.100.9, 10.0.0.5")

	assert.Equal(t, "198.51.100.9", resolveIP(t, request, "10.0.0.0/8"))
}

type corsConfig struct {
	dev     bool
	origins []string
}

func (c corsConfig) IsDevelopment() bool      { return c.dev }
func (c corsConfig) AllowedOrigins() []string { return c.origins }

func TestCORS(t *testing.T) {
	handler := middleware.CORS(corsConfig{origins: []string{"spotex.io"}})(okHandler)

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"https://spotex.io", true},
		{"https://admin.spotex.io:8443", true},
		{"https://evilspotex.io", false},
		{"https://spotex.io.evil.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			request.Header.Set(constants.HeaderOrigin, tt.origin)
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			if tt.allowed {
				assert.Equal(t, tt.origin, recorder.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, recorder.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	handler := middleware.CORS(corsConfig{dev: true})(okHandler)

	request := httptest.NewRequest(http.MethodOptions, "/api/v1/posts/", nil)
	request.Header.Set(constants.HeaderOrigin, "http://localhost:3000")
	request.Header.Set("Access-Control-Request-Method", http.MethodPost)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Equal(t, "http://localhost:3000", recorder.Header().Get("Access-Control-Allow-Origin"))
}

func TestPanicRecovery(t *testing.T) {
	handler := middleware.PanicRecovery()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))

	recorder := httptest.NewRecorder()
	require.NotPanics(t, func() {
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "INTERNAL_ERROR")
}

func TestStructuredLogger_IncludesPrincipal(t *testing.T) {
	var buffer bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buffer, nil))

	chain := middleware.RequestID()(
		middleware.StructuredLogger(logger)(
			middleware.Authenticate(stubAuthenticator{})(okHandler),
		),
	)

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set(constants.HeaderAuthorization, "Bearer editor")
	chain.ServeHTTP(httptest.NewRecorder(), request)

	assert.Contains(t, buffer.String(), `"msg":"http_request_finished"`)
	assert.Contains(t, buffer.String(), `"user_id":"u-editor"`)
	assert.Contains(t, buffer.String(), `"status":200`)
}

func TestRealIP_IgnoresGarbageHeaders(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.RemoteAddr = "10.0.0.1:5555"
	request.Header.Set(constants.HeaderXRealIP, "not-an-ip")
	request.Header.Set(constants.HeaderXForwardedFor, "203.0.113.7, unknown")

	assert.Equal(t, "10.0.0.1", resolveIP(t, request, "10.0.0.0/8"))
}

func TestRequestID_RejectsUnprintable(t *testing.T) {
	var seen string
	handler := middleware.RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ctxutil.GetRequestID(r.Context())
	}))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set(constants.HeaderXRequestID, "bad id")
	handler.ServeHTTP(httptest.NewRecorder(), request)

	assert.NotEqual(t, "bad id", seen)
	assert.NotEmpty(t, seen)
}
