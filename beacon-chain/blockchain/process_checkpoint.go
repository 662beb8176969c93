package blockchain

import (
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/core/feed"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/blocks"
	"github.com/prysmaticlabs/beacon-ingest/time/slots"
)

// processEpochBoundary caches the post-state of a block at the first slot of an
// epoch under its checkpoint, and reports justification and finalization advanced
// by the block relative to its parent. The strict comparison keeps reorgs to an
// equal or lower epoch from being reported twice.
func (s *Service) processEpochBoundary(vb *VerifiedBlock) {
	blk := vb.Block
	if !slots.IsEpochStart(blk.Slot()) {
		return
	}
	postState := vb.PostState
	cp := &blocks.Checkpoint{Epoch: slots.ToEpoch(blk.Slot()), Root: blk.Root()}
	if err := s.cfg.StateGen.AddCheckpointState(cp, postState); err != nil {
		log.WithError(err).WithField("epoch", cp.Epoch).Warn("Could not cache checkpoint state")
	}
	if s.cfg.StateNotifier.ListenerCount(feed.CheckpointEvent) > 0 {
		s.cfg.StateNotifier.Send(feed.CheckpointEvent, &feed.CheckpointEventData{
			Checkpoint: cp.Copy(),
			State:      postState.Copy(),
		})
	}
	logCheckpoint("Checkpoint processed", cp)
	currentActiveValidators.Set(float64(postState.ActiveValidatorCount(cp.Epoch)))

	parent := s.cfg.ForkChoiceStore.Block(blk.ParentRoot())
	if parent == nil {
		return
	}
	justified := postState.CurrentJustifiedCheckpoint()
	if justified.Epoch > parent.JustifiedEpoch {
		logCheckpoint("Checkpoint justified", justified)
		previousJustifiedEpoch.Set(float64(postState.PreviousJustifiedCheckpoint().Epoch))
		currentJustifiedEpoch.Set(float64(justified.Epoch))
	}
	finalized := postState.FinalizedCheckpoint()
	if finalized.Epoch > parent.FinalizedEpoch {
		s.cfg.StateNotifier.Send(feed.FinalizedCheckpointEvent, &feed.FinalizedCheckpointEventData{
			Block: finalized.Root,
			State: blk.Block.StateRoot,
			Epoch: finalized.Epoch,
		})
		logCheckpoint("Checkpoint finalized", finalized)
		finalizedEpoch.Set(float64(finalized.Epoch))
	}
}
