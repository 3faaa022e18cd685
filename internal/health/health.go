// Package health provides the HTTP health check and metrics endpoints.
//
// Docker and Kubernetes use /healthz for liveness and /readyz for
// readiness. The daemon only reports ready once every model is loaded, which
// can take a while on first start. When a metrics handler is supplied it is
// served at /metrics on the same port.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// Server is a lightweight HTTP server that exposes /healthz, /readyz and
// optionally /metrics.
type Server struct {
	port    int
	metrics http.Handler
	ready   atomic.Bool
	server  *http.Server
}

// New creates a new health check server. metrics may be nil.
func New(port int, metrics http.Handler) *Server {
	return &Server{port: port, metrics: metrics}
}

// SetReady marks the daemon as ready to accept traffic.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// Ready reports the current readiness.
func (s *Server) Ready() bool {
	return s.ready.Load()
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Liveness: the process is up and serving, models may still be loading.
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if !s.ready.Load() {
			writeStatus(w, http.StatusServiceUnavailable, "not_ready")
			return
		}
		writeStatus(w, http.StatusOK, "ok")
	})

	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	return mux
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}

// ListenAndServe starts the health check HTTP server.
// It blocks until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	slog.Info("health server listening", "port", s.port, "metrics", s.metrics != nil)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("health server: %w", err)
	}
	return nil
}
