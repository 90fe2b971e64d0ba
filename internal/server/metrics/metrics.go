// Package metrics exposes Prometheus collectors for authentication outcomes
// and HTTP request latency.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests and multiple servers in one
// process do not collide on the default registerer.
type Metrics struct {
	registry    *prometheus.Registry
	authEvents  *prometheus.CounterVec
	httpLatency *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vidtube",
			Name:      "auth_events_total",
			Help:      "Authentication operations by outcome.",
		}, []string{"op", "outcome"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vidtube",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	m.registry.MustRegister(
		m.authEvents,
		m.httpLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveAuth counts one auth operation. A nil receiver is a no-op.
func (m *Metrics) ObserveAuth(op, outcome string) {
	if m == nil {
		return
	}
	m.authEvents.WithLabelValues(op, outcome).Inc()
}

// ObserveHTTP records the latency of a finished request.
func (m *Metrics) ObserveHTTP(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpLatency.WithLabelValues(method, route, status).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// AuthCounter returns the counter for op and outcome.
func (m *Metrics) AuthCounter(op, outcome string) prometheus.Counter {
	return m.authEvents.WithLabelValues(op, outcome)
}
