package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "giftwish_backend_requests_total",
		Help: "Backend REST requests by method and response status.",
	}, []string{"method", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "giftwish_backend_request_duration_seconds",
		Help:    "Backend REST request round-trip time.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
)
