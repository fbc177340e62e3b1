package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Registry = prometheus.NewRegistry()

	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wibloo",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		},
		[]string{"route", "code"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wibloo",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	CounterAdjustTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wibloo",
			Name:      "counter_adjustments_total",
			Help:      "Denormalized counter adjustments by entity and direction.",
		},
		[]string{"counter", "direction"},
	)
)

func init() {
	Registry.MustRegister(
		RequestTotal,
		RequestDuration,
		CounterAdjustTotal,
	)
}
