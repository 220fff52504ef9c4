// Package metrics provides Prometheus metrics for the ranker service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Ranking
	rankUpdates        prometheus.Counter
	rankUpdateFailures *prometheus.CounterVec
	rankUpdateDuration prometheus.Histogram
	rankedUsers        prometheus.Gauge
	rankRowsWritten    *prometheus.CounterVec
	lastUpdateUnix     prometheus.Gauge

	// Trigger queue
	triggersEnqueued  prometheus.Counter
	triggersCoalesced prometheus.Counter

	// Repository
	repositoryQueryLatency *prometheus.HistogramVec
	repositoryErrors       *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "ranker",
		subsystem:        "ranking",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.rankUpdates = m.counter("rank_updates_total", "Total number of successful rank recomputations")
	m.rankUpdateFailures = m.counterVec("rank_update_failures_total", "Rank recomputations that rolled back, by cause", "cause")
	m.rankUpdateDuration = m.histogram("rank_update_duration_milliseconds", "Duration of a full recompute-and-persist cycle", m.histogramBuckets)
	m.rankedUsers = m.gauge("ranked_users", "Number of users holding a rank after the last update")
	m.rankRowsWritten = m.counterVec("rank_rows_written_total", "Rank rows touched by updates, by action", "action")
	m.lastUpdateUnix = m.gauge("last_update_unix_seconds", "Unix time of the last successful rank update")

	m.triggersEnqueued = m.counter("triggers_enqueued_total", "Recompute requests accepted into the trigger queue")
	m.triggersCoalesced = m.counter("triggers_coalesced_total", "Recompute requests folded into an already pending one")

	m.repositoryQueryLatency = m.histogramVec("repository_query_latency_milliseconds", "Store operation latency", "store", "op")
	m.repositoryErrors = m.counterVec("repository_errors_total", "Store operation failures", "store", "op")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "Average GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordRankUpdate records a successful update and its duration.
func RecordRankUpdate(durationMs float64, unixSeconds float64) {
	globalManager.rankUpdates.Inc()
	globalManager.rankUpdateDuration.Observe(durationMs)
	globalManager.lastUpdateUnix.Set(unixSeconds)
}

// RecordRankUpdateFailure increments the failure counter for cause.
func RecordRankUpdateFailure(cause string) {
	globalManager.rankUpdateFailures.WithLabelValues(cause).Inc()
}

// UpdateRankedUsers sets the number of currently ranked users.
func UpdateRankedUsers(count int) {
	globalManager.rankedUsers.Set(float64(count))
}

// RecordRankRowsWritten adds the per-action row counts of one update.
func RecordRankRowsWritten(created, updated, deleted int) {
	globalManager.rankRowsWritten.WithLabelValues("created").Add(float64(created))
	globalManager.rankRowsWritten.WithLabelValues("updated").Add(float64(updated))
	globalManager.rankRowsWritten.WithLabelValues("deleted").Add(float64(deleted))
}

// RecordTriggerEnqueued increments the accepted trigger counter.
func RecordTriggerEnqueued() {
	globalManager.triggersEnqueued.Inc()
}

// RecordTriggerCoalesced increments the coalesced trigger counter.
func RecordTriggerCoalesced() {
	globalManager.triggersCoalesced.Inc()
}

// RecordRepositoryQueryLatency records a store operation latency.
func RecordRepositoryQueryLatency(store, op string, latencyMs float64) {
	globalManager.repositoryQueryLatency.WithLabelValues(store, op).Observe(latencyMs)
}

// RecordRepositoryError increments the failure counter of a store operation.
func RecordRepositoryError(store, op string) {
	globalManager.repositoryErrors.WithLabelValues(store, op).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent increments the error counter for a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets heap bytes in use.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records the average GC pause time.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry backing the package-level recorders.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
