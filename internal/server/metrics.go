package server

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zonecarbon_http_requests_total",
			Help: "Total HTTP requests processed",
		},
		[]string{"status"},
	)

	requestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "zonecarbon_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
	)
)

func observeRequest(status int, d time.Duration) {
	requestsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
	requestDuration.Observe(d.Seconds())
}
