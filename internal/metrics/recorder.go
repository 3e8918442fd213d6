package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the Prometheus series of one node.
type Recorder struct {
	RequestsTotal          *prometheus.CounterVec
	RequestDurationSeconds *prometheus.HistogramVec
	UpstreamCallsTotal     *prometheus.CounterVec
	UpstreamCallSeconds    prometheus.Histogram
	UpstreamUp             prometheus.Gauge
}

// NewRecorder creates the series for node, prefixed with the node name.
func NewRecorder(node string) *Recorder {
	return &Recorder{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: node,
				Name:      "http_requests_total",
				Help:      "The total number of HTTP requests handled, by route and status code.",
			},
			[]string{"method", "route", "code"},
		),
		RequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: node,
				Name:      "http_request_duration_seconds",
				Help:      "Time from request arrival to response emission in seconds.",
				Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "route"},
		),
		UpstreamCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: node,
				Name:      "upstream_calls_total",
				Help:      "The total number of upstream calls, by terminal state.",
			},
			[]string{"outcome"},
		),
		UpstreamCallSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: node,
				Name:      "upstream_call_duration_seconds",
				Help:      "Duration of upstream calls in seconds, including failed ones.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 2.5},
			},
		),
		UpstreamUp: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: node,
				Name:      "upstream_up",
				Help:      "Whether the last upstream health probe succeeded (1) or not (0).",
			},
		),
	}
}

func (r *Recorder) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		r.RequestsTotal,
		r.RequestDurationSeconds,
		r.UpstreamCallsTotal,
		r.UpstreamCallSeconds,
		r.UpstreamUp,
	}
}

func (r *Recorder) observeRequest(method, route string, status int, d time.Duration) {
	r.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.RequestDurationSeconds.WithLabelValues(method, route).Observe(d.Seconds())
}

func (r *Recorder) observeForward(outcome string, d time.Duration) {
	r.UpstreamCallsTotal.WithLabelValues(outcome).Inc()
	r.UpstreamCallSeconds.Observe(d.Seconds())
}

func (r *Recorder) observeUpstreamHealth(healthy bool) {
	if healthy {
		r.UpstreamUp.Set(1)
		return
	}
	r.UpstreamUp.Set(0)
}
