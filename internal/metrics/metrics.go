// Package metrics holds the Prometheus collectors of the desk. Each
// Metrics value owns its registry so tests and multiple servers in one
// process do not collide.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values.
const (
	ResultCreated  = "created"
	ResultUpdated  = "updated"
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Metrics bundles the collectors and their registry.
type Metrics struct {
	Registry *prometheus.Registry

	RecordsSaved      *prometheus.CounterVec
	Confirmations     *prometheus.CounterVec
	DocumentsRendered *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry, including the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		RecordsSaved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qmva_records_saved_total",
			Help: "Procedure records written, by result.",
		}, []string{"result"}),
		Confirmations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qmva_confirmations_total",
			Help: "Read confirmations submitted, by result.",
		}, []string{"result"}),
		DocumentsRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qmva_documents_rendered_total",
			Help: "PDF documents rendered, by result.",
		}, []string{"result"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "qmva_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and status code.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "code"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RecordsSaved,
		m.Confirmations,
		m.DocumentsRendered,
		m.RequestDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// ObserveRequest records one request. A nil Metrics is a no-op so callers
// can run without instrumentation.
func (m *Metrics) ObserveRequest(route string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(route, strconv.Itoa(code)).Observe(elapsed.Seconds())
}

// RecordSaved counts a record write.
func (m *Metrics) RecordSaved(result string) {
	if m != nil {
		m.RecordsSaved.WithLabelValues(result).Inc()
	}
}

// Confirmed counts a confirmation attempt.
func (m *Metrics) Confirmed(result string) {
	if m != nil {
		m.Confirmations.WithLabelValues(result).Inc()
	}
}

// Rendered counts a render attempt.
func (m *Metrics) Rendered(result string) {
	if m != nil {
		m.DocumentsRendered.WithLabelValues(result).Inc()
	}
}
