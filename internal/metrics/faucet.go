package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	faucetRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "faucet",
			Subsystem: "core",
			Name:      "requests_total",
			Help:      "Total number of distribution requests",
		},
		[]string{"network", "outcome"},
	)

	faucetSendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "faucet",
			Subsystem: "core",
			Name:      "send_duration_seconds",
			Help:      "Time taken to build, sign, broadcast and confirm a send",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"network"},
	)

	faucetDeclinesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "faucet",
			Subsystem: "core",
			Name:      "declines_total",
			Help:      "Total number of threshold declines",
		},
	)
)

// FaucetMetrics provides methods to update distribution metrics.
type FaucetMetrics struct{}

func NewFaucetMetrics() *FaucetMetrics {
	return &FaucetMetrics{}
}

// RecordRequest records one distribution request and its outcome.
func (fm *FaucetMetrics) RecordRequest(network, outcome string) {
	faucetRequestsTotal.WithLabelValues(network, outcome).Inc()
}

// RecordSend records a completed send and its duration.
func (fm *FaucetMetrics) RecordSend(network string, duration time.Duration) {
	faucetSendDuration.WithLabelValues(network).Observe(duration.Seconds())
}

// RecordDecline records a threshold decline.
func (fm *FaucetMetrics) RecordDecline() {
	faucetDeclinesTotal.Inc()
}
