// Package metrics exposes Prometheus instrumentation for outbound downstream
// calls.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	outboundRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bff_outbound_requests_total",
			Help: "Outbound downstream calls by service label and outcome.",
		},
		[]string{"service", "outcome"},
	)

	outboundDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bff_outbound_request_duration_seconds",
			Help:    "Duration of outbound downstream calls, including retries.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service"},
	)
)

// RecordOutbound records one logical outbound call. The outcome is "success"
// or the error kind the call failed with.
func RecordOutbound(service, outcome string, duration time.Duration) {
	outboundRequests.WithLabelValues(service, outcome).Inc()
	outboundDuration.WithLabelValues(service).Observe(duration.Seconds())
}

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
