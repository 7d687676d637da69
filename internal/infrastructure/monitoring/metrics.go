package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "evalbot"

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Invocation metrics
	InvocationsTotal   *prometheus.CounterVec
	InvocationDuration *prometheus.HistogramVec
	Transitions        *prometheus.CounterVec
	PagesTotal         prometheus.Counter
	InFlight           prometheus.Gauge

	// Transport metrics
	ChatMessages *prometheus.CounterVec
	RateLimited  *prometheus.CounterVec

	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current metric values for the JSON API
type Snapshot struct {
	Invocations   int64   `json:"invocations"`
	Failures      int64   `json:"failures"`
	InFlight      int64   `json:"in_flight"`
	TotalDuration float64 `json:"-"`
	AvgDurationMS float64 `json:"avg_duration_ms"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// NewMetrics registers every collector on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method", "path"},
		),

		InvocationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invocations_total",
				Help:      "Total number of script invocations by outcome and error kind",
			},
			[]string{"outcome", "kind"},
		),
		InvocationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "invocation_duration_seconds",
				Help:      "Script invocation duration in seconds",
				Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2, 5, 10, 30},
			},
			[]string{"outcome"},
		),
		Transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatch_transitions_total",
				Help:      "Dispatcher state transitions",
			},
			[]string{"state"},
		),
		PagesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pages_total",
				Help:      "Total number of output pages produced",
			},
		),
		InFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "invocations_in_flight",
				Help:      "Invocations currently being dispatched",
			},
		),

		ChatMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chat_messages_total",
				Help:      "Chat messages received and sent",
			},
			[]string{"direction"},
		),
		RateLimited: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limited_total",
				Help:      "Requests rejected by a rate limiter",
			},
			[]string{"surface"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Process uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Started marks an invocation as in flight.
func (m *Metrics) Started() {
	m.InFlight.Inc()
	m.mu.Lock()
	m.snapshot.InFlight++
	m.mu.Unlock()
}

// Transition counts a dispatcher state change.
func (m *Metrics) Transition(state string) {
	m.Transitions.WithLabelValues(state).Inc()
}

// Finished records the outcome of an invocation. kind is empty on success.
func (m *Metrics) Finished(outcome, kind string, pages int, duration time.Duration) {
	m.InFlight.Dec()
	m.InvocationsTotal.WithLabelValues(outcome, kind).Inc()
	m.InvocationDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	m.PagesTotal.Add(float64(pages))

	m.mu.Lock()
	m.snapshot.InFlight--
	m.snapshot.Invocations++
	m.snapshot.TotalDuration += duration.Seconds()
	if kind != "" {
		m.snapshot.Failures++
	}
	m.mu.Unlock()
}

// RecordChatMessage counts a chat message, direction "in" or "out".
func (m *Metrics) RecordChatMessage(direction string) {
	m.ChatMessages.WithLabelValues(direction).Inc()
}

// RecordRateLimited counts a rejected request.
func (m *Metrics) RecordRateLimited(surface string) {
	m.RateLimited.WithLabelValues(surface).Inc()
}

// Snapshot returns the current values for the JSON API
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snapshot
	if s.Invocations > 0 {
		s.AvgDurationMS = s.TotalDuration / float64(s.Invocations) * 1000
	}
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
