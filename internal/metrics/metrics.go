package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the pyramid service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	// Requests by route and status code
	Requests *prometheus.CounterVec

	RequestLatency *prometheus.HistogramVec

	// Remote rate model calls by outcome: "ok", "error", "cached"
	ModelCalls   *prometheus.CounterVec
	ModelLatency prometheus.Histogram

	// Projections by kind: "cohort", "long_range"
	Projections *prometheus.CounterVec
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pyramid_http_requests_total",
			Help: "Total HTTP requests by route and status",
		}, []string{"route", "status"}),

		RequestLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pyramid_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route"}),

		ModelCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pyramid_rate_model_calls_total",
			Help: "Rate model lookups by outcome",
		}, []string{"outcome"}),

		ModelLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "pyramid_rate_model_duration_seconds",
			Help:    "Duration of remote rate model requests",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		}),

		Projections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pyramid_projections_total",
			Help: "Projections computed by kind",
		}, []string{"kind"}),
	}
}

// ObserveRequest records one handled request.
func (m *Metrics) ObserveRequest(route, status string, d time.Duration) {
	if m != nil {
		m.Requests.WithLabelValues(route, status).Inc()
		m.RequestLatency.WithLabelValues(route).Observe(d.Seconds())
	}
}

// IncrementModelCall records a rate model lookup outcome.
func (m *Metrics) IncrementModelCall(outcome string) {
	if m != nil {
		m.ModelCalls.WithLabelValues(outcome).Inc()
	}
}

// ObserveModelLatency records the duration of a remote rate model request.
func (m *Metrics) ObserveModelLatency(d time.Duration) {
	if m != nil {
		m.ModelLatency.Observe(d.Seconds())
	}
}

// IncrementProjection records a computed projection.
func (m *Metrics) IncrementProjection(kind string) {
	if m != nil {
		m.Projections.WithLabelValues(kind).Inc()
	}
}
