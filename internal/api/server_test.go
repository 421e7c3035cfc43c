// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/wisp-term/wispbot/internal/config"
	"github.com/wisp-term/wispbot/internal/health"
)

func newTestServer(webhook http.Handler) *Server {
	return New(config.ServerConfig{ListenAddr: "127.0.0.1:0", WebhookRate: 5},
		health.NewManager("test"), webhook)
}

func TestProbeRoutes(t *testing.T) {
	s := newTestServer(nil)

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		rec := httptest.NewRecorder()
		s.http.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRequestIDPropagation(t *testing.T) {
	s := newTestServer(nil)

	rec := httptest.NewRecorder()
	s.http.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	s.http.Handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestWebhookRouteAbsentWithoutHandler(t *testing.T) {
	s := newTestServer(nil)
	rec := httptest.NewRecorder()
	s.http.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhooks/github", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebhookRateLimit(t *testing.T) {
	hits := 0
	s := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.WriteHeader(http.StatusAccepted)
	}))

	limited := false
	for range 10 {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/webhooks/github", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		s.http.Handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			limited = true
		}
	}
	require.True(t, limited, "expected the limiter to kick in within 10 requests")
	assert.LessOrEqual(t, hits, 5)
}

func TestRunShutsDownCleanly(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s := newTestServer(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestRecovererCatchesPanic(t *testing.T) {
	s := newTestServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/github", nil)
	s.http.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
