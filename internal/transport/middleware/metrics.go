package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "notesync_http_request_duration_seconds",
		Help:    "HTTP request latency by method and status code.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "code"})

	panicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notesync_http_panics_total",
		Help: "Handler panics recovered by the HTTP stack.",
	})
)
