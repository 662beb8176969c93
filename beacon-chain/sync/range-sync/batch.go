// Package rangesync downloads and imports ranges of finalized or head blocks
// from peers. A chain is split into batches of EpochsPerBatch epochs, each one
// driven through its own state machine.
package rangesync

import (
	"github.com/libp2p/go-libp2p-core/peer"
	"github.com/prysmaticlabs/beacon-ingest/config/params"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/blocks"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
	"github.com/sirupsen/logrus"
)

// BatchStatus is the state of a Batch.
type BatchStatus uint8

const (
	// AwaitingDownload batches wait for a peer to download from.
	AwaitingDownload BatchStatus = iota
	// Downloading batches have a request in flight.
	Downloading
	// AwaitingProcessing batches hold downloaded blocks.
	AwaitingProcessing
	// Processing batches are being imported.
	Processing
	// AwaitingValidation batches were imported, and are confirmed by the import of a later batch.
	AwaitingValidation
)

func (s BatchStatus) String() string {
	switch s {
	case AwaitingDownload:
		return "AwaitingDownload"
	case Downloading:
		return "Downloading"
	case AwaitingProcessing:
		return "AwaitingProcessing"
	case Processing:
		return "Processing"
	case AwaitingValidation:
		return "AwaitingValidation"
	default:
		return "Unknown"
	}
}

// BlocksByRangeRequest describes the blocks a batch requests from the network.
type BlocksByRangeRequest struct {
	StartSlot primitives.Slot
	Count     uint64
	Step      uint64
}

// processingAttempt records the peer whose blocks failed processing or validation.
type processingAttempt struct {
	peer peer.ID
	err  error
}

// Batch tracks the download and import of EpochsPerBatch epochs of blocks.
// A batch is owned by a single goroutine and is not safe for concurrent use.
type Batch struct {
	startEpoch primitives.Epoch
	request    BlocksByRangeRequest
	status     BatchStatus
	// peer served the current download, or the blocks being processed or validated.
	peer   peer.ID
	blocks []blocks.ROBlock

	failedDownloads  []peer.ID
	failedProcessing []processingAttempt
}

// NewBatch creates a batch starting at startEpoch, awaiting download.
func NewBatch(startEpoch primitives.Epoch) *Batch {
	cfg := params.BeaconConfig()
	return &Batch{
		startEpoch: startEpoch,
		request: BlocksByRangeRequest{
			StartSlot: primitives.Slot(startEpoch) * cfg.SlotsPerEpoch,
			Count:     cfg.SlotsPerBatch(),
			Step:      1,
		},
		status: AwaitingDownload,
	}
}

// StartEpoch of the batch.
func (b *Batch) StartEpoch() primitives.Epoch {
	return b.startEpoch
}

// Request returns the blocks by range request of the batch. It only depends on
// the start epoch.
func (b *Batch) Request() BlocksByRangeRequest {
	return b.request
}

// Status of the batch.
func (b *Batch) Status() BatchStatus {
	return b.status
}

// Peer returns the peer of the current attempt, if any.
func (b *Batch) Peer() peer.ID {
	return b.peer
}

// StartDownloading records pid as the peer serving the batch.
func (b *Batch) StartDownloading(pid peer.ID) error {
	if err := b.expect(AwaitingDownload); err != nil {
		return err
	}
	b.peer = pid
	b.setStatus(Downloading)
	return nil
}

// DownloadingSuccess stores the downloaded blocks.
func (b *Batch) DownloadingSuccess(blks []blocks.ROBlock) error {
	if err := b.expect(Downloading); err != nil {
		return err
	}
	b.blocks = blks
	b.setStatus(AwaitingProcessing)
	downloadedBlocks.Add(float64(len(blks)))
	return nil
}

// DownloadingError records the download peer as failed. The batch goes back to
// AwaitingDownload, and a MaxDownloadAttempts error is returned once the batch
// failed to download more than MaxBatchDownloadAttempts times.
func (b *Batch) DownloadingError() error {
	if err := b.expect(Downloading); err != nil {
		return err
	}
	b.failedDownloads = append(b.failedDownloads, b.peer)
	b.peer = ""
	b.setStatus(AwaitingDownload)
	batchFailures.WithLabelValues("download").Inc()
	if uint64(len(b.failedDownloads)) > params.BeaconConfig().MaxBatchDownloadAttempts {
		return &BatchError{Code: MaxDownloadAttempts, StartEpoch: b.startEpoch, Status: b.status}
	}
	return nil
}

// StartProcessing hands the downloaded blocks to the caller.
func (b *Batch) StartProcessing() ([]blocks.ROBlock, error) {
	if err := b.expect(AwaitingProcessing); err != nil {
		return nil, err
	}
	blks := b.blocks
	b.blocks = nil
	b.setStatus(Processing)
	return blks, nil
}

// ProcessingSuccess marks the batch as imported. It stays around until a later
// batch confirms it.
func (b *Batch) ProcessingSuccess() error {
	if err := b.expect(Processing); err != nil {
		return err
	}
	b.setStatus(AwaitingValidation)
	return nil
}

// ProcessingError records a failed import and sends the batch back to download.
func (b *Batch) ProcessingError(err error) error {
	if e := b.expect(Processing); e != nil {
		return e
	}
	return b.processingFailed("processing", err)
}

// ValidationError records that the imported batch turned out to be invalid, and
// sends it back to download.
func (b *Batch) ValidationError(err error) error {
	if e := b.expect(AwaitingValidation); e != nil {
		return e
	}
	return b.processingFailed("validation", err)
}

func (b *Batch) processingFailed(stage string, err error) error {
	b.failedProcessing = append(b.failedProcessing, processingAttempt{peer: b.peer, err: err})
	b.peer = ""
	b.blocks = nil
	b.setStatus(AwaitingDownload)
	batchFailures.WithLabelValues(stage).Inc()
	log.WithError(err).WithFields(b.logFields()).WithField("stage", stage).Debug("Batch attempt failed")
	if uint64(len(b.failedProcessing)) > params.BeaconConfig().MaxBatchProcessAttempts {
		return &BatchError{Code: MaxProcessingAttempts, StartEpoch: b.startEpoch, Status: b.status}
	}
	return nil
}

// GetFailedPeers returns the peers of every failed download, processing and
// validation attempt, in the order they failed.
func (b *Batch) GetFailedPeers() []peer.ID {
	peers := make([]peer.ID, 0, len(b.failedDownloads)+len(b.failedProcessing))
	peers = append(peers, b.failedDownloads...)
	for _, a := range b.failedProcessing {
		peers = append(peers, a.peer)
	}
	return peers
}

func (b *Batch) expect(want BatchStatus) error {
	if b.status != want {
		return &BatchError{Code: WrongStatus, StartEpoch: b.startEpoch, Status: b.status, ExpectedStatus: want}
	}
	return nil
}

func (b *Batch) setStatus(s BatchStatus) {
	b.status = s
	batchTransitions.WithLabelValues(s.String()).Inc()
}

func (b *Batch) logFields() logrus.Fields {
	return logrus.Fields{
		"startEpoch":       b.startEpoch,
		"status":           b.status,
		"failedDownloads":  len(b.failedDownloads),
		"failedProcessing": len(b.failedProcessing),
	}
}
