package observability

import (
	"bufio"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "interview_scheduler"

// Metrics holds the service collectors on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
	httpInFlight prometheus.Gauge

	scheduled     prometheus.Counter
	conflicts     *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	notifyFailure *prometheus.CounterVec
	lockWait      prometheus.Histogram
}

// NewMetrics registers every collector on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests received",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "Current number of in-flight HTTP requests",
		}),
		scheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interviews_scheduled_total",
			Help:      "Interviews created",
		}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduling_conflicts_total",
			Help:      "Schedule or reschedule attempts rejected by a calendar conflict",
		}, []string{"operation", "role"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interview_transitions_total",
			Help:      "Lifecycle transitions applied",
		}, []string{"action"}),
		notifyFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Notifications that could not be delivered",
		}, []string{"type"}),
		lockWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lock_wait_seconds",
			Help:      "Time spent acquiring calendar locks",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpLatency, m.httpInFlight,
		m.scheduled, m.conflicts, m.transitions, m.notifyFailure, m.lockWait,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Scheduled counts a created interview.
func (m *Metrics) Scheduled() {
	if m == nil {
		return
	}
	m.scheduled.Inc()
}

// Conflict counts a rejected schedule or reschedule.
func (m *Metrics) Conflict(operation, role string) {
	if m == nil {
		return
	}
	m.conflicts.WithLabelValues(operation, role).Inc()
}

// Transition counts an applied lifecycle action.
func (m *Metrics) Transition(action string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(action).Inc()
}

// NotifyFailed counts an undelivered notification.
func (m *Metrics) NotifyFailed(eventType string) {
	if m == nil {
		return
	}
	m.notifyFailure.WithLabelValues(eventType).Inc()
}

// LockWaited records how long a caller waited for its locks.
func (m *Metrics) LockWaited(d time.Duration) {
	if m == nil {
		return
	}
	m.lockWait.Observe(d.Seconds())
}

// Middleware records request count, latency and in-flight gauge. route
// maps a request to a low-cardinality label.
func (m *Metrics) Middleware(route func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.httpInFlight.Inc()
			defer m.httpInFlight.Dec()

			rec := &StatusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			status := strconv.Itoa(rec.Status())
			label := route(r)
			m.httpRequests.WithLabelValues(r.Method, label, status).Inc()
			m.httpLatency.WithLabelValues(r.Method, label, status).Observe(time.Since(start).Seconds())
		})
	}
}

// StatusRecorder captures the response status while passing writes through.
// It forwards Hijack so websocket upgrades keep working behind it.
type StatusRecorder struct {
	http.ResponseWriter
	status int
}

// WriteHeader records the status.
func (r *StatusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Write defaults the status to 200.
func (r *StatusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// Status returns the recorded status, 200 when nothing was written.
func (r *StatusRecorder) Status() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

// Flush implements http.Flusher.
func (r *StatusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack implements http.Hijacker.
func (r *StatusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := r.ResponseWriter.(http.Hijacker); ok {
		if r.status == 0 {
			r.status = http.StatusSwitchingProtocols
		}
		return h.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}
