// Package observability exposes prometheus metrics for the HTTP
// surface and the ingestion paths.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricPrefix = "measurand_"

// Metrics holds the process metric set on its own registry so tests
// can create independent instances.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	measurementsIngested *prometheus.CounterVec
	ingestRejected       *prometheus.CounterVec
}

// New creates and registers the metric set.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "status"},
		),
		httpLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		measurementsIngested: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "measurements_ingested_total",
				Help: "Accepted measurements by ingestion path",
			},
			[]string{"path"},
		),
		ingestRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_rejected_total",
				Help: "Rejected ingestion attempts by path and reason",
			},
			[]string{"path", "reason"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpLatency,
		m.measurementsIngested,
		m.ingestRejected,
	)
	return m
}

// Handler serves the scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one completed request. route is the chi route
// pattern, not the raw path, to keep cardinality bounded.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Accepted implements measure.IngestMetrics.
func (m *Metrics) Accepted(path string) {
	m.measurementsIngested.WithLabelValues(path).Inc()
}

// Rejected implements measure.IngestMetrics.
func (m *Metrics) Rejected(path, reason string) {
	m.ingestRejected.WithLabelValues(path, reason).Inc()
}
