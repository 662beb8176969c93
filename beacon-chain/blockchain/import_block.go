package blockchain

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/core/feed"
	forkchoicetypes "github.com/prysmaticlabs/beacon-ingest/beacon-chain/forkchoice/types"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-ingest/config/features"
	"github.com/prysmaticlabs/beacon-ingest/config/params"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/blocks"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-ingest/encoding/bytesutil"
	"github.com/prysmaticlabs/beacon-ingest/time/slots"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

// reprocessMinTimeToNextSlot is how close to the next slot an import may finish
// for waiting operations to be released against the next slot instead.
const reprocessMinTimeToNextSlot = 2 * time.Second

// ImportAttestationsMode selects whether the attestations and attester slashings
// of a block are applied to fork choice.
type ImportAttestationsMode int

const (
	// ImportAttestationsDefault applies them only for blocks inside the fork choice lookback windows.
	ImportAttestationsDefault ImportAttestationsMode = iota
	// ImportAttestationsForce applies them regardless of the age of the block.
	ImportAttestationsForce
	// ImportAttestationsSkip never applies them. Used for blocks far behind the wall clock.
	ImportAttestationsSkip
)

func (m ImportAttestationsMode) String() string {
	switch m {
	case ImportAttestationsDefault:
		return "default"
	case ImportAttestationsForce:
		return "force"
	case ImportAttestationsSkip:
		return "skip"
	default:
		return "unknown"
	}
}

// ImportBlockOpts are the caller options of ImportBlock.
type ImportBlockOpts struct {
	ImportAttestations ImportAttestationsMode
	// EagerPersistBlock is set when the caller already saved the block, usually in a
	// batched write of a whole chain segment.
	EagerPersistBlock bool
	// SeenTimestampSec is the unix time in seconds the block was first seen. Zero if unknown.
	SeenTimestampSec float64
}

// VerifiedBlock is a block that passed full consensus validation, together with
// the post-state and statuses computed while verifying it.
type VerifiedBlock struct {
	Block                  blocks.ROBlock
	Source                 blocks.BlockSource
	PostState              state.BeaconState
	ParentBlockSlot        primitives.Slot
	ProposerBalanceDelta   int64
	ExecutionStatus        forkchoicetypes.ExecutionStatus
	DataAvailabilityStatus forkchoicetypes.DataAvailabilityStatus
	Blobs                  []*blocks.BlobSidecar
	SeenTimestampSec       float64
}

func (b *VerifiedBlock) validate() error {
	if b == nil || b.Block.IsNil() {
		return ErrNilVerifiedBlock
	}
	if b.PostState == nil {
		return ErrNilPostState
	}
	return nil
}

// ImportBlock commits a verified block and its post-state to the node. Errors
// returned are fatal to the import: the block could not be saved or was rejected
// by fork choice. Every later step is isolated, logged and does not fail the import.
func (s *Service) ImportBlock(ctx context.Context, vb *VerifiedBlock, opts ImportBlockOpts) error {
	ctx, span := trace.StartSpan(ctx, "blockchain.ImportBlock")
	defer span.End()

	if err := vb.validate(); err != nil {
		return err
	}
	// Work deferred by the previous import runs before this import starts.
	s.deferred.Drain()

	blk := vb.Block
	blockRoot := blk.Root()
	blockSlot := blk.Slot()
	blockEpoch := slots.ToEpoch(blockSlot)
	currentSlot := s.clock.CurrentSlot()
	currentEpoch := slots.ToEpoch(currentSlot)
	fc := s.cfg.ForkChoiceStore
	prevJustifiedEpoch := fc.JustifiedCheckpoint().Epoch
	prevFinalizedEpoch := fc.FinalizedCheckpoint().Epoch
	seenTimestampSec := opts.SeenTimestampSec
	if seenTimestampSec == 0 {
		seenTimestampSec = vb.SeenTimestampSec
	}
	blockDelaySec := slotDelaySec(s.clock.GenesisTime(), blockSlot, seenTime(seenTimestampSec, s.clock.Now()))
	span.AddAttributes(trace.Int64Attribute("slot", int64(blockSlot)))

	// A block known to fork choice must already be in the database.
	if !opts.EagerPersistBlock {
		if err := s.cfg.BeaconDB.SaveBlock(ctx, blk); err != nil {
			return errors.Wrapf(err, "could not save block from slot %d", blockSlot)
		}
	}

	blockSummary, err := fc.OnBlock(ctx, blk, vb.PostState, blockDelaySec, currentSlot, vb.ExecutionStatus, vb.DataAvailabilityStatus)
	if err != nil {
		return errors.Wrapf(err, "could not process block from slot %d in fork choice", blockSlot)
	}
	if err := s.cfg.StateGen.ProcessState(ctx, blockRoot, vb.PostState); err != nil {
		return errors.Wrap(err, "could not cache post state")
	}
	importedBlocksBySource.WithLabelValues(vb.Source.String()).Inc()
	log.WithFields(logrus.Fields{
		"slot": blockSlot,
		"root": fmt.Sprintf("%#x", bytesutil.Trunc(blockRoot[:])),
	}).Debug("Added block to fork choice and state cache")

	s.importBlockAttestations(ctx, vb, opts.ImportAttestations, currentEpoch)
	s.importBlockAttesterSlashings(vb, opts.ImportAttestations, currentEpoch)

	// Deferred work is queued only once the critical path is done.
	var deferred []func()
	oldHead, newHead := s.updateHead(ctx, vb)
	headChanged := newHead.BlockRoot != oldHead.BlockRoot
	if headChanged {
		if task := s.lightClientTask(vb); task != nil {
			deferred = append(deferred, task)
		}
	}
	currJustifiedEpoch := fc.JustifiedCheckpoint().Epoch
	currFinalizedEpoch := fc.FinalizedCheckpoint().Epoch
	if currJustifiedEpoch != prevJustifiedEpoch || currFinalizedEpoch != prevFinalizedEpoch {
		s.saveFinalityCheckpoints(ctx)
	}

	if !features.Get().DisableImportExecutionFCU && (headChanged || currFinalizedEpoch != prevFinalizedEpoch) {
		s.notifyForkchoiceUpdate()
	}

	if !vb.PostState.ValidatorsTreeCached() {
		log.WithField("slot", vb.PostState.Slot()).Debug("Caching post state without validators tree cache")
	}
	s.processEpochBoundary(vb)

	if currentSlot.SubSlot(blockSlot) < params.BeaconConfig().EventStreamRecentBlockSlots {
		deferred = append(deferred, func() {
			s.sendBlockEvents(vb, blockSummary)
		})
	}

	s.recordImportMetrics(vb, blockEpoch, seenTimestampSec)
	s.seenBlockAttesters.Prune(currentEpoch)
	if s.cfg.Reprocess != nil {
		advancedSlot := s.clock.SlotWithFutureTolerance(reprocessMinTimeToNextSlot)
		deferred = append(deferred, func() {
			s.cfg.Reprocess.OnBlockImported(blockSlot, blockRoot, advancedSlot)
		})
	}
	s.deferred.Push(deferred...)
	logBlockImported(blk, s.clock.SecondsFromSlot(blockSlot))
	return nil
}

// saveFinalityCheckpoints persists the justified and finalized checkpoints of fork choice.
func (s *Service) saveFinalityCheckpoints(ctx context.Context) {
	j := s.cfg.ForkChoiceStore.JustifiedCheckpoint()
	if err := s.cfg.BeaconDB.SaveJustifiedCheckpoint(ctx, &blocks.Checkpoint{Epoch: j.Epoch, Root: j.Root}); err != nil {
		log.WithError(err).Error("Could not save justified checkpoint")
	}
	f := s.cfg.ForkChoiceStore.FinalizedCheckpoint()
	if err := s.cfg.BeaconDB.SaveFinalizedCheckpoint(ctx, &blocks.Checkpoint{Epoch: f.Epoch, Root: f.Root}); err != nil {
		log.WithError(err).Error("Could not save finalized checkpoint")
	}
}

func (s *Service) recordImportMetrics(vb *VerifiedBlock, blockEpoch primitives.Epoch, seenTimestampSec float64) {
	blk := vb.Block
	parentBlockDistance.Observe(float64(blk.Slot().SubSlot(vb.ParentBlockSlot)))
	proposerBalanceDelta.Observe(float64(vb.ProposerBalanceDelta))
	if agg := blk.Body().SyncAggregate; agg != nil && blockEpoch >= params.BeaconConfig().AltairForkEpoch {
		bits := agg.SyncCommitteeBits
		if bits.Len() > 0 {
			syncAggregateParticipation.Observe(float64(bits.Count()) / float64(bits.Len()))
		}
	}
	if seenTimestampSec > 0 {
		recvToImportLatency.Observe(s.clock.Now().Sub(seenTime(seenTimestampSec, s.clock.Now())).Seconds())
	}
}

// seenTime converts unix seconds to a time, defaulting to now when unknown.
func seenTime(sec float64, now time.Time) time.Time {
	if sec <= 0 {
		return now
	}
	return time.Unix(0, int64(sec*float64(time.Second)))
}

// sendBlockEvents fans out the operations of a recently imported block. Every
// kind is skipped when nobody listens for it.
func (s *Service) sendBlockEvents(vb *VerifiedBlock, summary *forkchoicetypes.ProtoBlock) {
	n := s.cfg.StateNotifier
	blk := vb.Block
	body := blk.Body()
	root := blk.Root()

	if n.ListenerCount(feed.BlockEvent) > 0 {
		n.Send(feed.BlockEvent, &feed.BlockEventData{
			Slot:                blk.Slot(),
			Block:               root,
			ExecutionOptimistic: summary.IsOptimistic(),
		})
	}
	if n.ListenerCount(feed.VoluntaryExitEvent) > 0 {
		for _, exit := range body.VoluntaryExits {
			n.Send(feed.VoluntaryExitEvent, exit)
		}
	}
	if n.ListenerCount(feed.BLSToExecutionChangeEvent) > 0 {
		for _, change := range body.BLSToExecutionChanges {
			n.Send(feed.BLSToExecutionChangeEvent, change)
		}
	}
	if n.ListenerCount(feed.AttestationEvent) > 0 {
		for _, att := range body.Attestations {
			n.Send(feed.AttestationEvent, att)
		}
	}
	if n.ListenerCount(feed.AttesterSlashingEvent) > 0 {
		for _, slashing := range body.AttesterSlashings {
			n.Send(feed.AttesterSlashingEvent, slashing)
		}
	}
	if n.ListenerCount(feed.ProposerSlashingEvent) > 0 {
		for _, slashing := range body.ProposerSlashings {
			n.Send(feed.ProposerSlashingEvent, slashing)
		}
	}
	if len(vb.Blobs) > 0 && n.ListenerCount(feed.BlobSidecarEvent) > 0 {
		for _, blob := range vb.Blobs {
			if blob == nil {
				continue
			}
			n.Send(feed.BlobSidecarEvent, &feed.BlobSidecarEventData{
				BlockRoot:     root,
				Index:         blob.Index,
				Slot:          blk.Slot(),
				KzgCommitment: blob.KzgCommitment,
				VersionedHash: blocks.KzgToVersionedHash(blob.KzgCommitment[:]),
			})
		}
	}
}
