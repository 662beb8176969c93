package rangesync

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	batchTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "range_sync_batch_transitions_total",
		Help: "Count of batch status transitions, by the status entered.",
	}, []string{"status"})
	batchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "range_sync_batch_failures_total",
		Help: "Count of failed batch attempts, by stage.",
	}, []string{"stage"})
	downloadedBlocks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "range_sync_downloaded_blocks_total",
		Help: "Count of blocks received for range sync batches.",
	})
	processedBatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "range_sync_processed_batches_total",
		Help: "Count of batches whose blocks were imported.",
	})
	abandonedChains = promauto.NewCounter(prometheus.CounterOpts{
		Name: "range_sync_abandoned_chains_total",
		Help: "Count of chains abandoned after a batch exhausted its attempts.",
	})
)
