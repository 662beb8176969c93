package rangesync

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/libp2p/go-libp2p-core/peer"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-ingest/async"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/blockchain"
	"github.com/prysmaticlabs/beacon-ingest/config/params"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/blocks"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
	"golang.org/x/sync/errgroup"
)

const progressLogPeriod = 10 * time.Second

// SyncType tells whether a chain syncs finalized history or recent blocks.
type SyncType uint8

const (
	// Finalized chains sync up to a finalized checkpoint. Their attestations are
	// far outside the fork choice windows and are not imported.
	Finalized SyncType = iota
	// Head chains sync up to a peer's head.
	Head
)

func (t SyncType) String() string {
	if t == Finalized {
		return "finalized"
	}
	return "head"
}

// BlocksFetcher downloads the blocks described by a request from a peer.
type BlocksFetcher interface {
	BlocksByRange(ctx context.Context, pid peer.ID, req BlocksByRangeRequest) ([]blocks.ROBlock, error)
}

// ChainSegmentProcessor imports a chain segment ordered parent first.
type ChainSegmentProcessor interface {
	ImportBlocks(ctx context.Context, blks []blocks.ROBlock, opts blockchain.ImportBlockOpts) error
}

var _ ChainSegmentProcessor = (*blockchain.Service)(nil)

// ChainConfig configures a SyncChain.
type ChainConfig struct {
	StartEpoch primitives.Epoch
	TargetSlot primitives.Slot
	Peers      []peer.ID
	SyncType   SyncType
	Fetcher    BlocksFetcher
	Processor  ChainSegmentProcessor
}

// SyncChain syncs the blocks from StartEpoch up to TargetSlot. Batches are
// downloaded in parallel and imported strictly in epoch order. An imported
// batch is validated once the next non-empty batch has been imported on top of
// it, or the chain reached its target.
type SyncChain struct {
	cfg              *ChainConfig
	batches          map[primitives.Epoch]*Batch
	nextBatchEpoch   primitives.Epoch
	processingTarget primitives.Epoch
	inFlight         int
	nextPeer         int
	started          time.Time
	importedBlocks   uint64
	validatedEpoch   uint64
}

type downloadResult struct {
	epoch  primitives.Epoch
	blocks []blocks.ROBlock
	err    error
}

// NewSyncChain creates a chain from cfg.
func NewSyncChain(cfg *ChainConfig) (*SyncChain, error) {
	if cfg.Fetcher == nil {
		return nil, errNilFetcher
	}
	if cfg.Processor == nil {
		return nil, errNilProcessor
	}
	return &SyncChain{
		cfg:              cfg,
		batches:          make(map[primitives.Epoch]*Batch),
		nextBatchEpoch:   cfg.StartEpoch,
		processingTarget: cfg.StartEpoch,
		validatedEpoch:   uint64(cfg.StartEpoch),
	}, nil
}

// Sync runs the chain until every batch up to the target slot is imported and
// validated. It returns a BatchError when a batch exhausted its attempts, in
// which case the chain should be dropped, and the context error when ctx is done.
func (c *SyncChain) Sync(ctx context.Context) error {
	ctx, span := trace.StartSpan(ctx, "rangesync.Sync")
	defer span.End()

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	results := make(chan downloadResult)
	defer func() {
		cancel()
		if err := g.Wait(); err != nil {
			log.WithError(err).Debug("Batch download worker failed")
		}
	}()

	c.started = time.Now()
	async.RunEvery(ctx, "range-sync-progress", progressLogPeriod, c.logProgress)
	log.WithFields(c.logFields()).Info("Starting range sync")

	err := c.run(ctx, gctx, g, results)
	if err != nil {
		if IsBatchError(err, MaxDownloadAttempts) || IsBatchError(err, MaxProcessingAttempts) {
			abandonedChains.Inc()
			log.WithError(err).WithFields(c.logFields()).Warn("Abandoning range sync chain")
		}
		return err
	}
	log.WithFields(c.logFields()).WithField("blocks", humanize.Comma(int64(atomic.LoadUint64(&c.importedBlocks)))).Info("Range sync complete")
	return nil
}

func (c *SyncChain) run(ctx, gctx context.Context, g *errgroup.Group, results chan downloadResult) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.scheduleBatches()
		if err := c.startDownloads(gctx, g, results); err != nil {
			return err
		}
		done, progressed, err := c.processNextBatch(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if progressed {
			continue
		}
		if c.inFlight == 0 {
			return errStalled
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res := <-results:
			c.inFlight--
			if err := c.onDownloadResult(res); err != nil {
				return err
			}
		}
	}
}

// scheduleBatches keeps BatchBufferSize batches at or ahead of the processing target.
func (c *SyncChain) scheduleBatches() {
	buffer := params.BeaconConfig().BatchBufferSize
	for c.batchesAhead() < buffer && startSlot(c.nextBatchEpoch) <= c.cfg.TargetSlot {
		c.batches[c.nextBatchEpoch] = NewBatch(c.nextBatchEpoch)
		c.nextBatchEpoch += primitives.Epoch(params.BeaconConfig().EpochsPerBatch)
	}
}

func (c *SyncChain) batchesAhead() uint64 {
	n := uint64(0)
	for epoch := range c.batches {
		if epoch >= c.processingTarget {
			n++
		}
	}
	return n
}

func (c *SyncChain) startDownloads(ctx context.Context, g *errgroup.Group, results chan<- downloadResult) error {
	for _, b := range c.sortedBatches() {
		if b.Status() != AwaitingDownload {
			continue
		}
		pid, err := c.selectPeer(b)
		if err != nil {
			return err
		}
		if err := b.StartDownloading(pid); err != nil {
			return err
		}
		c.inFlight++
		epoch, req := b.StartEpoch(), b.Request()
		g.Go(func() error {
			blks, err := c.cfg.Fetcher.BlocksByRange(ctx, pid, req)
			select {
			case results <- downloadResult{epoch: epoch, blocks: blks, err: err}:
			case <-ctx.Done():
			}
			return nil
		})
	}
	return nil
}

// selectPeer rotates through the peers, skipping those that already failed the batch
// while any other peer is left.
func (c *SyncChain) selectPeer(b *Batch) (peer.ID, error) {
	if len(c.cfg.Peers) == 0 {
		return "", errNoPeers
	}
	failed := make(map[peer.ID]bool)
	for _, pid := range b.GetFailedPeers() {
		failed[pid] = true
	}
	start := c.nextPeer
	c.nextPeer++
	for i := 0; i < len(c.cfg.Peers); i++ {
		pid := c.cfg.Peers[(start+i)%len(c.cfg.Peers)]
		if !failed[pid] {
			return pid, nil
		}
	}
	return c.cfg.Peers[start%len(c.cfg.Peers)], nil
}

func (c *SyncChain) onDownloadResult(res downloadResult) error {
	b, ok := c.batches[res.epoch]
	if !ok {
		return nil
	}
	err := res.err
	if err == nil {
		err = checkResponseRange(b.Request(), res.blocks)
	}
	if err != nil {
		log.WithError(err).WithFields(b.logFields()).WithField("peer", b.Peer()).Debug("Could not download batch")
		return b.DownloadingError()
	}
	return b.DownloadingSuccess(res.blocks)
}

// processNextBatch imports the batch at the processing target if it is ready.
func (c *SyncChain) processNextBatch(ctx context.Context) (done bool, progressed bool, err error) {
	if startSlot(c.processingTarget) > c.cfg.TargetSlot {
		c.validateBatchesBefore(c.processingTarget)
		return true, false, nil
	}
	b, ok := c.batches[c.processingTarget]
	if !ok || b.Status() != AwaitingProcessing {
		return false, false, nil
	}
	blks, err := b.StartProcessing()
	if err != nil {
		return false, false, err
	}
	epochsPerBatch := primitives.Epoch(params.BeaconConfig().EpochsPerBatch)
	if len(blks) == 0 {
		// An empty batch imports nothing, so it cannot confirm the batches before it.
		if err := b.ProcessingSuccess(); err != nil {
			return false, false, err
		}
		c.processingTarget += epochsPerBatch
		return false, true, nil
	}

	if err := c.cfg.Processor.ImportBlocks(ctx, blks, c.importOpts()); err != nil {
		if ctx.Err() != nil {
			return false, false, ctx.Err()
		}
		log.WithError(err).WithFields(b.logFields()).WithField("peer", b.Peer()).Warn("Could not import batch")
		if err := b.ProcessingError(err); err != nil {
			return false, false, err
		}
		// The blocks of an earlier batch may be the ones at fault.
		return false, true, c.redownloadUnvalidated(err)
	}
	if err := b.ProcessingSuccess(); err != nil {
		return false, false, err
	}
	processedBatches.Inc()
	atomic.AddUint64(&c.importedBlocks, uint64(len(blks)))
	c.validateBatchesBefore(b.StartEpoch())
	c.processingTarget += epochsPerBatch
	return false, true, nil
}

// redownloadUnvalidated fails validation of every imported batch that has not
// been confirmed yet, and moves the processing target back to the first of them.
func (c *SyncChain) redownloadUnvalidated(cause error) error {
	for _, b := range c.sortedBatches() {
		if b.Status() != AwaitingValidation {
			continue
		}
		if err := b.ValidationError(cause); err != nil {
			return err
		}
		if b.StartEpoch() < c.processingTarget {
			c.processingTarget = b.StartEpoch()
		}
	}
	return nil
}

func (c *SyncChain) validateBatchesBefore(epoch primitives.Epoch) {
	for e, b := range c.batches {
		if e < epoch && b.Status() == AwaitingValidation {
			delete(c.batches, e)
		}
	}
	if uint64(epoch) > atomic.LoadUint64(&c.validatedEpoch) {
		atomic.StoreUint64(&c.validatedEpoch, uint64(epoch))
	}
}

func (c *SyncChain) importOpts() blockchain.ImportBlockOpts {
	if c.cfg.SyncType == Finalized {
		return blockchain.ImportBlockOpts{ImportAttestations: blockchain.ImportAttestationsSkip}
	}
	return blockchain.ImportBlockOpts{ImportAttestations: blockchain.ImportAttestationsDefault}
}

func (c *SyncChain) sortedBatches() []*Batch {
	batches := make([]*Batch, 0, len(c.batches))
	for _, b := range c.batches {
		batches = append(batches, b)
	}
	sort.Slice(batches, func(i, j int) bool {
		return batches[i].StartEpoch() < batches[j].StartEpoch()
	})
	return batches
}

func (c *SyncChain) logProgress() {
	imported := atomic.LoadUint64(&c.importedBlocks)
	rate := float64(imported) / time.Since(c.started).Seconds()
	log.WithFields(c.logFields()).WithFields(logrus.Fields{
		"blocks":          humanize.Comma(int64(imported)),
		"blocksPerSecond": humanize.FormatFloat("#,###.##", rate),
		"validatedEpoch":  atomic.LoadUint64(&c.validatedEpoch),
	}).Info("Range sync progress")
}

func (c *SyncChain) logFields() logrus.Fields {
	return logrus.Fields{
		"syncType":   c.cfg.SyncType,
		"startEpoch": c.cfg.StartEpoch,
		"targetSlot": c.cfg.TargetSlot,
		"peers":      len(c.cfg.Peers),
	}
}

// checkResponseRange verifies the blocks lie in the requested range in ascending slot order.
func checkResponseRange(req BlocksByRangeRequest, blks []blocks.ROBlock) error {
	end := req.StartSlot.Add(req.Count)
	prev := primitives.Slot(0)
	for i, b := range blks {
		if b.IsNil() {
			return errors.Wrapf(errUnexpectedRange, "nil block at index %d", i)
		}
		slot := b.Slot()
		if slot < req.StartSlot || slot >= end {
			return errors.Wrapf(errUnexpectedRange, "slot %d not in [%d, %d)", slot, req.StartSlot, end)
		}
		if i > 0 && slot <= prev {
			return errors.Wrapf(errUnexpectedRange, "slot %d does not follow slot %d", slot, prev)
		}
		prev = slot
	}
	return nil
}

func startSlot(epoch primitives.Epoch) primitives.Slot {
	return primitives.Slot(epoch) * params.BeaconConfig().SlotsPerEpoch
}
