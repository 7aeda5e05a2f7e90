package observe

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds askql's prometheus collectors on a private registry.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	backendFallbacks *prometheus.CounterVec
	safetyRejections prometheus.Counter
	modelCalls       *prometheus.CounterVec
	ingestedRows     prometheus.Counter
}

// NewMetrics creates and registers every collector.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "askql_http_requests_total",
			Help: "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "askql_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		backendFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "askql_backend_fallbacks_total",
			Help: "Operations served by the embedded store after the primary store failed.",
		}, []string{"op"}),
		safetyRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "askql_safety_rejections_total",
			Help: "Generated statements rejected by the SQL safety validator.",
		}),
		modelCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "askql_model_calls_total",
			Help: "Language model calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
		ingestedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "askql_ingested_rows_total",
			Help: "Rows committed into dataset tables.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration, m.backendFallbacks,
		m.safetyRejections, m.modelCalls, m.ingestedRows,
	)
	return m
}

// Handler returns the /metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one finished request.
func (m *Metrics) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// BackendFallback records one primary → embedded fallback.
func (m *Metrics) BackendFallback(op string) {
	if m == nil {
		return
	}
	m.backendFallbacks.WithLabelValues(op).Inc()
}

// SafetyRejected records one rejected statement.
func (m *Metrics) SafetyRejected() {
	if m == nil {
		return
	}
	m.safetyRejections.Inc()
}

// ModelCall records one language model call. outcome is "ok" or "error".
func (m *Metrics) ModelCall(provider, outcome string) {
	if m == nil {
		return
	}
	m.modelCalls.WithLabelValues(provider, outcome).Inc()
}

// RowsIngested adds n committed dataset rows.
func (m *Metrics) RowsIngested(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ingestedRows.Add(float64(n))
}
