package blockchain

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	beaconHeadSlot = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "beacon_head_slot",
		Help: "Slot of the head block of the beacon chain",
	})
	headChangedCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beacon_head_changed_count",
		Help: "The number of imports that changed the head",
	})
	reorgCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beacon_reorgs_total",
		Help: "Count the number of times beacon chain has a reorg",
	})
	reorgDistance = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "beacon_reorg_distance",
		Help:    "Number of slots between the old head and the common ancestor of a reorg",
		Buckets: []float64{1, 2, 3, 5, 7, 10, 20, 32, 64},
	})
	importedBlocksBySource = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "beacon_import_block_by_source_total",
		Help: "Total number of imported blocks by the source they were received from",
	}, []string{"source"})
	elapsedTimeTillBecomeHead = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "beacon_import_block_elapsed_time_till_become_head_seconds",
		Help:    "Time from the start of the slot until a recent block became head",
		Buckets: []float64{0.5, 1, 2, 4, 6, 12},
	})
	setHeadAfterFirstInterval = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beacon_import_block_set_head_after_first_interval_total",
		Help: "The number of recent blocks that became head after the first interval of their slot",
	})
	parentBlockDistance = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "beacon_imported_block_parent_distance",
		Help:    "Slot distance between an imported block and its parent",
		Buckets: []float64{1, 2, 3, 5, 7, 10, 20, 32},
	})
	proposerBalanceDelta = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "beacon_imported_block_proposer_balance_delta_gwei",
		Help:    "Balance change of the proposer caused by an imported block",
		Buckets: []float64{0, 1e4, 1e5, 1e6, 1e7, 1e8, 1e9},
	})
	syncAggregateParticipation = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "beacon_imported_block_sync_aggregate_participation",
		Help:    "Fraction of sync committee bits set in imported blocks",
		Buckets: []float64{0.1, 0.25, 0.5, 0.75, 0.9, 0.95, 1},
	})
	currentActiveValidators = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "beacon_current_active_validators",
		Help: "Number of active validators at the latest epoch boundary state",
	})
	previousJustifiedEpoch = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "beacon_previous_justified_epoch",
		Help: "Previous justified epoch of the latest epoch boundary state",
	})
	currentJustifiedEpoch = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "beacon_current_justified_epoch",
		Help: "Current justified epoch of the latest epoch boundary state",
	})
	finalizedEpoch = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "beacon_finalized_epoch",
		Help: "Finalized epoch of the latest epoch boundary state",
	})
	attestationImportErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "beacon_import_block_attestation_errors_total",
		Help: "Attestations of imported blocks rejected by fork choice, by error code",
	}, []string{"code"})
	recvToImportLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "beacon_gossip_block_recv_to_import_seconds",
		Help:    "Time from the receipt of a gossip block until its import completed",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8},
	})
)
