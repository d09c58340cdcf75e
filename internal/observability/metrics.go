package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/conectapg/occurrence-service/internal/domain"
)

// Metrics holds the prometheus collectors exported by the service.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	errorsTotal       *prometheus.CounterVec
	occurrencesTotal  *prometheus.CounterVec
	statusChanges     *prometheus.CounterVec
	usersCreatedTotal *prometheus.CounterVec
}

// NewMetrics registers all collectors on a dedicated registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests processed.",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency distributions.",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route", "status"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_errors_total",
				Help: "HTTP requests that ended with an error envelope, by error code.",
			},
			[]string{"method", "route", "code"},
		),
		occurrencesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "occurrences_created_total",
				Help: "Occurrences reported, by type.",
			},
			[]string{"type"},
		),
		statusChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "occurrence_status_changes_total",
				Help: "Occurrence status transitions, by target status.",
			},
			[]string{"to"},
		),
		usersCreatedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "users_created_total",
				Help: "Users registered, by role.",
			},
			[]string{"role"},
		),
	}
	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.errorsTotal,
		m.occurrencesTotal,
		m.statusChanges,
		m.usersCreatedTotal,
	)
	return m
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest observes a finished HTTP request.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requestsTotal.WithLabelValues(method, route, code).Inc()
	m.requestDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
}

// RecordError counts an error response.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(method, route, code).Inc()
}

// OccurrenceCreated counts a new occurrence.
func (m *Metrics) OccurrenceCreated(t domain.OccurrenceType) {
	if m == nil {
		return
	}
	m.occurrencesTotal.WithLabelValues(string(t)).Inc()
}

// OccurrenceStatusChanged counts a status transition.
func (m *Metrics) OccurrenceStatusChanged(to domain.OccurrenceStatus) {
	if m == nil {
		return
	}
	m.statusChanges.WithLabelValues(string(to)).Inc()
}

// UserCreated counts a new user.
func (m *Metrics) UserCreated(role domain.Role) {
	if m == nil {
		return
	}
	m.usersCreatedTotal.WithLabelValues(string(role)).Inc()
}
