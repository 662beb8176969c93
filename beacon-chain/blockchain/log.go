package blockchain

import (
	"fmt"

	"github.com/prysmaticlabs/beacon-ingest/consensus-types/blocks"
	"github.com/prysmaticlabs/beacon-ingest/encoding/bytesutil"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "blockchain")

// logBlockImported logs the slot, root and body counts of an imported block.
func logBlockImported(blk blocks.ROBlock, delaySec float64) {
	root := blk.Root()
	body := blk.Body()
	log.WithFields(logrus.Fields{
		"slot":              blk.Slot(),
		"root":              fmt.Sprintf("%#x", bytesutil.Trunc(root[:])),
		"attestations":      len(body.Attestations),
		"attesterSlashings": len(body.AttesterSlashings),
		"exits":             len(body.VoluntaryExits),
		"delaySec":          fmt.Sprintf("%.3f", delaySec),
	}).Debug("Block processed")
}

func logCheckpoint(msg string, cp *blocks.Checkpoint) {
	log.WithFields(logrus.Fields{
		"epoch": cp.Epoch,
		"root":  fmt.Sprintf("%#x", bytesutil.Trunc(cp.Root[:])),
	}).Debug(msg)
}
