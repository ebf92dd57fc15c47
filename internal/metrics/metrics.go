// Package metrics records client-side request metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors for one client instance.
type Metrics struct {
	registry *prometheus.Registry

	requests   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	inFlight   prometheus.Gauge
	tokenWipes prometheus.Counter
	pollRounds *prometheus.CounterVec
}

// New creates collectors registered on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "complaint_client",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of backend requests issued.",
			},
			[]string{"method", "route", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "complaint_client",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of backend requests.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
			},
			[]string{"method", "route"},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "complaint_client",
				Subsystem: "http",
				Name:      "inflight_requests",
				Help:      "Current number of in-flight backend requests.",
			},
		),
		tokenWipes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "complaint_client",
				Subsystem: "session",
				Name:      "token_erasures_total",
				Help:      "Session tokens erased after a 401 response.",
			},
		),
		pollRounds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "complaint_client",
				Subsystem: "notifications",
				Name:      "poll_rounds_total",
				Help:      "Notification watcher poll rounds.",
			},
			[]string{"result"},
		),
	}

	m.registry.MustRegister(m.requests, m.duration, m.inFlight, m.tokenWipes, m.pollRounds)
	return m
}

// Registry exposes the collectors, e.g. for a push gateway or tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RequestStarted increments the in-flight gauge.
func (m *Metrics) RequestStarted() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

// RequestFinished records a completed request. status is 0 for transport failures.
func (m *Metrics) RequestFinished(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.inFlight.Dec()

	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(method, route, label).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// TokenErased counts a 401-triggered session wipe.
func (m *Metrics) TokenErased() {
	if m == nil {
		return
	}
	m.tokenWipes.Inc()
}

// PollRound counts one watcher round, result is "ok" or "error".
func (m *Metrics) PollRound(result string) {
	if m == nil {
		return
	}
	m.pollRounds.WithLabelValues(result).Inc()
}
