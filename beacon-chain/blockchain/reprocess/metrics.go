package reprocess

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	awaitingBlocks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reprocess_awaiting_blocks",
		Help: "Number of unknown block roots operations are waiting for.",
	})
	resolvedAwaitingBlocks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reprocess_resolved_awaiting_blocks_total",
		Help: "Count of awaited block roots resolved, by outcome.",
	}, []string{"outcome"})
)
