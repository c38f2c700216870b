package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AIMetrics exposes counters/histograms for completion calls.
type AIMetrics struct {
	requestsTotal   *prometheus.CounterVec
	latency         *prometheus.HistogramVec
	supersededTotal *prometheus.CounterVec
}

func NewAIMetrics(reg prometheus.Registerer) *AIMetrics {
	m := &AIMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mediplus",
			Subsystem: "ai",
			Name:      "requests_total",
			Help:      "Completion requests by feature and outcome",
		}, []string{"feature", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mediplus",
			Subsystem: "ai",
			Name:      "request_duration_seconds",
			Help:      "Latency of completion requests",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"feature"}),
		supersededTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mediplus",
			Subsystem: "ai",
			Name:      "superseded_total",
			Help:      "Results discarded because a newer request owned the slot",
		}, []string{"slot"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.latency, m.supersededTotal)
	return m
}

// ObserveRequest records one finished completion call. outcome is one of
// "ok", "error" or "cancelled".
func (m *AIMetrics) ObserveRequest(feature, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(feature, outcome).Inc()
	m.latency.WithLabelValues(feature).Observe(elapsed.Seconds())
}

func (m *AIMetrics) ObserveSuperseded(slot string) {
	if m == nil {
		return
	}
	m.supersededTotal.WithLabelValues(slot).Inc()
}

// HTTPMetrics exposes counters/histograms for the JSON API.
type HTTPMetrics struct {
	requestsTotal *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mediplus",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route pattern, method and status",
		}, []string{"route", "method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mediplus",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.latency)
	return m
}

func (m *HTTPMetrics) ObserveRequest(route, method, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(route, method, status).Inc()
	m.latency.WithLabelValues(route, method).Observe(elapsed.Seconds())
}
