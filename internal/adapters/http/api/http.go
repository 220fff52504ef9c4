// Package api serves the operational HTTP endpoints: health and metrics.
package api

import (
	"context"
	"encoding/json"
	"net/http"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	StatsProvider

	// Healthy reports whether the last rank update succeeded.
	Healthy() bool
}

// Server wires the operational HTTP routes.
type Server struct {
	healthHandler  *HealthHandler
	metricsHandler http.Handler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(deps),
		metricsHandler: NewMetricsHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", s.metricsHandler)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
