package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// Outbound HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Generation metrics
	callsTotal   *prometheus.CounterVec
	tokensTotal  *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_client_requests_total",
				Help: "Total number of outbound HTTP requests",
			},
			[]string{"method", "host", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_client_request_duration_seconds",
				Help:    "Outbound HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "host"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_client_requests_in_flight",
				Help: "Number of outbound HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	r.callsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llmlab_calls_total",
			Help: "Total number of generation calls by outcome",
		},
		[]string{"kind", "model", "outcome"},
	)
	r.tokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llmlab_tokens_total",
			Help: "Total tokens reported by the provider",
		},
		[]string{"kind", "model", "type"},
	)
	r.callDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llmlab_call_duration_seconds",
			Help:    "Generation call latency in seconds, measured around the network call",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"kind", "model"},
	)

	reg.MustRegister(r.callsTotal)
	reg.MustRegister(r.tokensTotal)
	reg.MustRegister(r.callDuration)

	return r
}

// RecordRequest records metrics for an outbound HTTP request. A status of 0
// means the request failed before a response arrived.
func (r *Registry) RecordRequest(method, host string, status int, duration float64) {
	r.httpRequestsTotal.WithLabelValues(method, host, statusToString(status)).Inc()
	r.httpRequestDuration.WithLabelValues(method, host).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordCall records a successful generation call with its token counts.
func (r *Registry) RecordCall(kind, model string, promptTokens, completionTokens int, duration float64) {
	r.callsTotal.WithLabelValues(kind, model, "ok").Inc()
	r.tokensTotal.WithLabelValues(kind, model, "prompt").Add(float64(promptTokens))
	r.tokensTotal.WithLabelValues(kind, model, "completion").Add(float64(completionTokens))
	r.callDuration.WithLabelValues(kind, model).Observe(duration)
}

// RecordFailure records a failed generation call under its error code.
func (r *Registry) RecordFailure(kind, model, code string) {
	if code == "" {
		code = "UNKNOWN"
	}
	r.callsTotal.WithLabelValues(kind, model, code).Inc()
}

// WriteTextfile writes the current metrics in text exposition format, for
// node_exporter's textfile collector or later inspection.
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.Registry)
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	case status == 0:
		return "error"
	default:
		return "1xx"
	}
}
