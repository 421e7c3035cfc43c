// SPDX-License-Identifier: MIT

// Package api serves the ops HTTP endpoint: probes, metrics, and the GitHub
// webhook receiver.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/wisp-term/wispbot/internal/config"
	"github.com/wisp-term/wispbot/internal/health"
	"github.com/wisp-term/wispbot/internal/log"
)

// Server is the ops HTTP listener.
type Server struct {
	http *http.Server
}

// New assembles the router. webhook may be nil when no webhook secret is
// configured, which drops the route entirely.
func New(cfg config.ServerConfig, manager *health.Manager, webhook http.Handler) *Server {
	r := chi.NewRouter()
	r.Use(recoverer)
	r.Use(requestID)
	r.Use(accessLog)

	r.Get("/healthz", manager.ServeHealth)
	r.Get("/readyz", manager.ServeReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	if webhook != nil {
		rate := cfg.WebhookRate
		if rate <= 0 {
			rate = 60
		}
		r.With(httprate.Limit(
			rate,
			time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
		)).Method(http.MethodPost, "/webhooks/github", webhook)
	}

	handler := otelhttp.NewHandler(r, "ops",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)

	return &Server{
		http: &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	logger := log.WithComponent("api")
	logger.Info().Str("addr", s.http.Addr).Msg("ops listener started")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

// requestID attaches a correlation ID to the request context and response.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(log.ContextWithRequestID(r.Context(), id)))
	})
}

// accessLog writes one structured line per request.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger := log.WithComponentFromContext(r.Context(), "api")
				logger.Error().
					Any("panic", rec).
					Str("path", r.URL.Path).
					Msg("handler panicked")
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
