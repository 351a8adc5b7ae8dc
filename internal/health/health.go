// Package health provides the liveness, readiness and metrics endpoints.
//
// Docker and Kubernetes use /healthz and /readyz to monitor the daemon.
// /readyz also reports whether remote translation is configured; that is
// informational, the daemon is ready without it. Prometheus scrapes /metrics.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/nadzzz/lekha/internal/metrics"
)

// Server is a lightweight HTTP server for operational endpoints.
type Server struct {
	port    int
	metrics *metrics.Metrics

	ready      atomic.Bool
	remote     atomic.Bool
	transports atomic.Int32

	server *http.Server
}

// Readiness is the /readyz body.
type Readiness struct {
	Status            string `json:"status"`
	Transports        int    `json:"transports"`
	RemoteTranslation bool   `json:"remote_translation"`
}

// New creates a new health check server. m may be nil.
func New(port int, m *metrics.Metrics) *Server {
	return &Server{port: port, metrics: m}
}

// SetReady marks the daemon as ready to accept traffic.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// SetTransports records how many transports were started.
func (s *Server) SetTransports(n int) {
	s.transports.Store(int32(n))
}

// SetRemoteTranslation records whether the remote translator is configured.
func (s *Server) SetRemoteTranslation(configured bool) {
	s.remote.Store(configured)
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !s.ready.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "not_ready"})
			return
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		body := Readiness{
			Status:            "ok",
			Transports:        int(s.transports.Load()),
			RemoteTranslation: s.remote.Load(),
		}
		code := http.StatusOK
		if !s.ready.Load() {
			body.Status = "not_ready"
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(body)
	})

	mux.Handle("GET /metrics", s.metrics.Handler())

	return mux
}

// ListenAndServe starts the health check HTTP server.
// It blocks until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	slog.Info("health server listening", "port", s.port)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("health server: %w", err)
	}
	return nil
}
