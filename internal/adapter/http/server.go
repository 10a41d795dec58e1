// Package http serves the health, readiness, metrics and report endpoints of
// the scheduled service.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/river-flow-report/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ErrBusy is returned by a RunTrigger when a run is already in progress.
var ErrBusy = errors.New("run already in progress")

// ReportSource returns the most recently published report, if any.
type ReportSource interface {
	LastReport() (domain.Report, bool)
}

// RunTrigger starts a report run in the background.
type RunTrigger func() error

// Server exposes health, readiness, metrics and report HTTP endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics,
// GET /report and POST /runs routes. A nil trigger disables POST /runs.
func NewServer(addr string, ready sharedobs.ReadinessChecker, reports ReportSource, trigger RunTrigger, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /report", handleReport(reports))
	if trigger != nil {
		mux.HandleFunc("POST /runs", s.handleRun(trigger))
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleRun(trigger RunTrigger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if err := trigger(); err != nil {
			if errors.Is(err, ErrBusy) {
				sharedobs.WriteJSON(w, http.StatusConflict, map[string]string{"status": "busy", "error": err.Error()})
				return
			}
			s.logger.Error("trigger run failed", "error", err)
			sharedobs.WriteJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "error": err.Error()})
			return
		}
		sharedobs.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
	}
}

type reportResponse struct {
	Title  string          `json:"title"`
	Grid   [][]string      `json:"grid"`
	Alerts []alertResponse `json:"alerts"`
}

type alertResponse struct {
	Cell   string             `json:"cell"`
	Reason domain.AlertReason `json:"reason"`
}

func handleReport(source ReportSource) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		report, ok := source.LastReport()
		if !ok {
			sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "no report published yet"})
			return
		}
		resp := reportResponse{
			Title:  report.Title,
			Grid:   report.Grid(),
			Alerts: make([]alertResponse, len(report.Alerts)),
		}
		for i, a := range report.Alerts {
			resp.Alerts[i] = alertResponse{Cell: a.Cell(), Reason: a.Reason}
		}
		sharedobs.WriteJSON(w, http.StatusOK, resp)
	}
}
