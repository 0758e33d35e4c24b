package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dispatch"

// Metrics holds the service's Prometheus collectors. A nil *Metrics is a no-op.
type Metrics struct {
	requests        *prometheus.CounterVec
	requestLatency  *prometheus.HistogramVec
	errors          *prometheus.CounterVec
	assignments     *prometheus.CounterVec
	candidateLookup prometheus.Histogram
	notifications   *prometheus.CounterVec
	queueDepth      prometheus.Gauge
}

// NewMetrics registers collectors on reg (prometheus.DefaultRegisterer when nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "path", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "HTTP error responses by method, route and error code.",
		}, []string{"method", "path", "code"}),
		assignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matcher",
			Name:      "assignments_total",
			Help:      "Assignment attempts by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		candidateLookup: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "matcher",
			Name:      "candidate_lookup_seconds",
			Help:      "Time spent loading and ranking eligible staff.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "messages_total",
			Help:      "Assignment notifications by recipient and outcome.",
		}, []string{"recipient", "outcome"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "queue_depth",
			Help:      "Notification jobs waiting for a worker.",
		}),
	}
	reg.MustRegister(m.requests, m.requestLatency, m.errors, m.assignments, m.candidateLookup, m.notifications, m.queueDepth)
	return m
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.requestLatency.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(method, path, code).Inc()
}

// RecordAssignment counts an assignment attempt outcome (e.g. "assigned", "NO_AVAILABLE_STAFF").
func (m *Metrics) RecordAssignment(strategy, outcome string) {
	if m == nil {
		return
	}
	m.assignments.WithLabelValues(strategy, outcome).Inc()
}

// ObserveCandidateLookup records matcher latency.
func (m *Metrics) ObserveCandidateLookup(d time.Duration) {
	if m == nil {
		return
	}
	m.candidateLookup.Observe(d.Seconds())
}

// RecordNotification counts a delivered or failed message.
func (m *Metrics) RecordNotification(recipient, outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(recipient, outcome).Inc()
}

// SetQueueDepth reports pending notification jobs.
func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}
