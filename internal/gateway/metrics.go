package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	apiCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "console_api_calls_total",
		Help: "Calls made to the repair-shop API, by operation and outcome.",
	}, []string{"op", "outcome"})
	apiLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "console_api_call_duration_seconds",
		Help:    "Latency of calls made to the repair-shop API.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"op"})
)
