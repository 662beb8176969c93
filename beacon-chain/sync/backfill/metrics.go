package backfill

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	backfillLowSlot = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "backfill_low_slot",
		Help: "Slot of the lowest block backfilled into the archive.",
	})
	backfillArchivedBlocks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backfill_archived_blocks_total",
		Help: "Count of blocks verified and written to the archive by backfill.",
	})
	backfillSequenceErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backfill_sequence_errors_total",
		Help: "Count of rejected backfill block sequences, by error code.",
	}, []string{"code"})
)
