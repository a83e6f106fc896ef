// Package server exposes the monitor's HTTP surface: liveness, per-user
// health reports, a manual sweep trigger, and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meetsync/healthwatch/internal/health"
	"github.com/meetsync/healthwatch/internal/infra/storage"
)

// Sweeper triggers one scheduling sweep. Satisfied by *scheduler.Scheduler.
type Sweeper interface {
	Sweep(ctx context.Context, force bool) error
}

// Pinger reports collaborator liveness.
type Pinger func(ctx context.Context) error

// Server provides HTTP endpoints for the monitor.
type Server struct {
	repo    storage.IntegrationRepository
	states  *health.Store
	sweeper Sweeper
	pingers map[string]Pinger
	log     *slog.Logger
	server  *http.Server
}

// New creates the HTTP server.
func New(port int, repo storage.IntegrationRepository, states *health.Store, sweeper Sweeper, pingers map[string]Pinger, log *slog.Logger) *Server {
	mux := http.NewServeMux()
	s := &Server{
		repo:    repo,
		states:  states,
		sweeper: sweeper,
		pingers: pingers,
		log:     log,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/reports/", s.handleReport)
	mux.HandleFunc("/sweep", s.handleSweep)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	checks := make(map[string]string, len(s.pingers))
	for name, ping := range s.pingers {
		if err := ping(r.Context()); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			checks[name] = "ok"
		}
	}

	writeJSON(w, status, map[string]any{
		"status": http.StatusText(status),
		"checks": checks,
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/reports/")
	userID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user id"})
		return
	}

	report, err := health.BuildReport(r.Context(), s.repo, s.states, userID)
	if err != nil {
		s.log.Error("failed to build health report", "user", userID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "report failed"})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleSweep lets operators force a sweep outside the normal cadence.
func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "POST required"})
		return
	}
	force := r.URL.Query().Get("force") == "true"

	if err := s.sweeper.Sweep(r.Context(), force); err != nil {
		s.log.Error("manual sweep failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"forced": force})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
