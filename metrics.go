package memshared

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	opsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "memshared",
		Name:      "operations_total",
		Help:      "Collection operations by kind and operation name.",
	}, []string{"kind", "op"})

	capacityFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "memshared",
		Name:      "capacity_errors_total",
		Help:      "Writes rejected because the encoded frame would exceed segment capacity.",
	}, []string{"kind"})

	lockWait = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "memshared",
		Name:      "lock_wait_seconds",
		Help:      "Time spent waiting for the segment lock.",
		Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
	}, []string{"kind"})
)
