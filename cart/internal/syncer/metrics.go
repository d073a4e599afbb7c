package syncer

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultSynced       = "synced"
	resultRetry        = "retry"
	resultFailed       = "failed"
	resultUnauthorized = "unauthorized"
	resultDropped      = "dropped"
)

type Metrics struct {
	ops          *prometheus.CounterVec
	pending      prometheus.Gauge
	sendDuration prometheus.Histogram
}

// NewMetrics registers the sync collectors on reg. A nil reg leaves them unregistered, which tests use.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "storefront",
				Subsystem: "cart_sync",
				Name:      "ops_total",
				Help:      "Cart sync operations by outcome",
			},
			[]string{"result"},
		),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "storefront",
			Subsystem: "cart_sync",
			Name:      "pending",
			Help:      "Sessions with queued cart operations seen on the last tick",
		}),
		sendDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: "cart_sync",
			Name:      "send_duration_seconds",
			Help:      "Latency of backend cart calls made by the sync worker",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.ops, m.pending, m.sendDuration)
	}
	return m
}
