package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/ranker/pkg/metrics"
)

// Health statuses.
const (
	statusOK       = "ok"
	statusDegraded = "degraded"
)

type healthResponse struct {
	Status string                 `json:"status"`
	Stats  map[string]interface{} `json:"stats"`
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	deps Dependencies
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(deps Dependencies) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// HandleHealth handles GET /healthz. It answers 503 while the last rank
// update is failing.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
		return
	}
	resp := healthResponse{Status: statusOK, Stats: h.deps.GetStats()}
	status := http.StatusOK
	if !h.deps.Healthy() {
		resp.Status = statusDegraded
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// NewMetricsHandler serves the service's Prometheus registry.
func NewMetricsHandler() http.Handler {
	return promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})
}
