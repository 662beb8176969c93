package execution

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	forkchoiceUpdatedLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "forkchoice_updated_latency_milliseconds",
			Help:    "Captures RPC latency for forkchoiceUpdated in milliseconds",
			Buckets: []float64{25, 50, 100, 200, 500, 1000, 2000, 4000},
		},
	)
	forkchoiceUpdatedStatus = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forkchoice_updated_status_count",
			Help: "Count of forkchoiceUpdated responses by payload status",
		},
		[]string{"status"},
	)
)
