// Package server exposes an agent over HTTP and drives its schedule.
//
// Every invocation, whether it comes from an HTTP request or from the ticker,
// goes through one mutex so the agent only ever runs one dispatch at a time.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pfrederiksen/telegrambis/internal/agent"
	"github.com/pfrederiksen/telegrambis/internal/event"
	"github.com/pfrederiksen/telegrambis/internal/logger"
	"github.com/pfrederiksen/telegrambis/internal/metrics"
)

// maxBodyBytes bounds POST /events bodies.
const maxBodyBytes = 1 << 20

// Server serializes invocations of one agent.
type Server struct {
	mu      sync.Mutex
	plugin  agent.Plugin
	metrics *metrics.Metrics
	log     *logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics serves the registry on GET /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger sets the request logger.
func WithLogger(log *logger.Logger) Option {
	return func(s *Server) { s.log = log }
}

// New wraps plugin.
func New(plugin agent.Plugin, opts ...Option) *Server {
	s := &Server{plugin: plugin, log: logger.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Check runs one scheduled tick.
func (s *Server) Check(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plugin.Check(ctx)
}

// Receive hands events to the agent.
func (s *Server) Receive(ctx context.Context, events []event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plugin.Receive(ctx, events)
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/events", s.handleEvents)
	r.Post("/check", s.handleCheck)
	r.Get("/healthz", s.handleHealth)
	r.Get("/describe", s.handleDescribe)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	return r
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	events, err := event.Read(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.log.Warn("rejected events", logger.Fields{"error": err.Error()})
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	if len(events) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "no events in request body"})
		return
	}

	if err := s.Receive(r.Context(), events); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"received": len(events),
			"error":    err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"received": len(events)})
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	working, err := s.plugin.Working(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}

	status := http.StatusOK
	if !working {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{"working": working})
}

func (s *Server) handleDescribe(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.plugin.Describe())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) // nolint:errcheck
}

// Run serves the handler on addr and runs Check every interval until ctx is
// done. An interval of zero disables the schedule.
func (s *Server) Run(ctx context.Context, addr string, every time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", logger.Fields{"addr": addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var tick <-chan time.Time
	if every > 0 {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutting down: %w", err)
			}
			return nil
		case err, ok := <-errCh:
			if ok {
				return fmt.Errorf("serving %s: %w", addr, err)
			}
			return nil
		case <-tick:
			if err := s.Check(ctx); err != nil {
				s.log.Error("scheduled check failed", nil, err)
			}
		}
	}
}
