package blockchain

import (
	"context"
	"fmt"

	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/core/feed"
	forkchoicetypes "github.com/prysmaticlabs/beacon-ingest/beacon-chain/forkchoice/types"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-ingest/config/features"
	"github.com/prysmaticlabs/beacon-ingest/config/params"
	"github.com/prysmaticlabs/beacon-ingest/encoding/bytesutil"
	"github.com/prysmaticlabs/beacon-ingest/time/slots"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

// updateHead recomputes the head of fork choice. When it changed, the new head
// state becomes the strong head reference of the state cache and head and reorg
// events are sent. A failed recomputation keeps the old head.
func (s *Service) updateHead(ctx context.Context, vb *VerifiedBlock) (oldHead, newHead *forkchoicetypes.ProtoBlock) {
	ctx, span := trace.StartSpan(ctx, "blockchain.updateHead")
	defer span.End()

	fc := s.cfg.ForkChoiceStore
	oldHead = fc.Head()
	newHead, err := fc.UpdateHead(ctx)
	if err != nil {
		log.WithError(err).Error("Could not update head")
		return oldHead, oldHead
	}
	if newHead.BlockRoot == oldHead.BlockRoot {
		return oldHead, newHead
	}

	if headState := s.headState(ctx, vb, newHead); headState != nil {
		s.cfg.StateGen.UpdateHeadState(newHead.BlockRoot, headState)
	}
	if err := s.cfg.BeaconDB.SaveHeadBlockRoot(ctx, newHead.BlockRoot); err != nil {
		log.WithError(err).Error("Could not save head block root")
	}

	previousDependentRoot, err := fc.DependentRoot(newHead, forkchoicetypes.EpochPrevious)
	if err != nil {
		log.WithError(err).Debug("Could not get previous duty dependent root")
	}
	currentDependentRoot, err := fc.DependentRoot(newHead, forkchoicetypes.EpochCurrent)
	if err != nil {
		log.WithError(err).Debug("Could not get current duty dependent root")
	}
	s.cfg.StateNotifier.Send(feed.HeadEvent, &feed.HeadEventData{
		Slot:                      newHead.Slot,
		Block:                     newHead.BlockRoot,
		State:                     newHead.StateRoot,
		EpochTransition:           slots.IsEpochStart(newHead.Slot),
		PreviousDutyDependentRoot: previousDependentRoot,
		CurrentDutyDependentRoot:  currentDependentRoot,
		ExecutionOptimistic:       newHead.IsOptimistic(),
	})

	delaySec := s.clock.SecondsFromSlot(newHead.Slot)
	log.WithFields(logrus.Fields{
		"slot":     newHead.Slot,
		"root":     fmt.Sprintf("%#x", bytesutil.Trunc(newHead.BlockRoot[:])),
		"delaySec": fmt.Sprintf("%.3f", delaySec),
	}).Debug("New chain head")
	cfg := params.BeaconConfig()
	beaconHeadSlot.Set(float64(newHead.Slot))
	headChangedCount.Inc()
	// Only recent blocks are tracked, sync would distort the distribution.
	if delaySec < float64(uint64(cfg.SlotsPerEpoch)*cfg.SecondsPerSlot) {
		elapsedTimeTillBecomeHead.Observe(delaySec)
		if delaySec > float64(cfg.SecondsPerSlot)/float64(cfg.IntervalsPerSlot) {
			setHeadAfterFirstInterval.Inc()
		}
	}

	if result := fc.CommonAncestorDepth(oldHead, newHead); result.Code == forkchoicetypes.CommonAncestor {
		data := &feed.ChainReorgEventData{
			Slot:                newHead.Slot,
			Depth:               result.Depth,
			OldHeadBlock:        oldHead.BlockRoot,
			NewHeadBlock:        newHead.BlockRoot,
			OldHeadState:        oldHead.StateRoot,
			NewHeadState:        newHead.StateRoot,
			Epoch:               slots.ToEpoch(newHead.Slot),
			ExecutionOptimistic: newHead.IsOptimistic(),
		}
		s.cfg.StateNotifier.Send(feed.ChainReorgEvent, data)
		log.WithFields(logrus.Fields{
			"newSlot": newHead.Slot,
			"oldSlot": oldHead.Slot,
			"depth":   result.Depth,
			"newRoot": fmt.Sprintf("%#x", bytesutil.Trunc(newHead.BlockRoot[:])),
			"oldRoot": fmt.Sprintf("%#x", bytesutil.Trunc(oldHead.BlockRoot[:])),
		}).Info("Chain reorg occurred")
		reorgCount.Inc()
		reorgDistance.Observe(float64(result.Depth))
	}
	return oldHead, newHead
}

// lightClientTask returns the light client update of a block that became head,
// nil when the light client server is off or the block predates Altair.
func (s *Service) lightClientTask(vb *VerifiedBlock) func() {
	blk := vb.Block
	if s.cfg.LightClientServer == nil || !features.Get().EnableLightClient ||
		slots.ToEpoch(blk.Slot()) < params.BeaconConfig().AltairForkEpoch {
		return nil
	}
	postState := vb.PostState
	parentSlot := vb.ParentBlockSlot
	return func() {
		if err := s.cfg.LightClientServer.OnImportBlockHead(blk, postState, parentSlot); err != nil {
			log.WithError(err).WithField("slot", blk.Slot()).Debug("Could not update light client server")
		}
	}
}

// headState returns the post-state of the new head: the imported post-state when the
// imported block became head, the cached state otherwise.
func (s *Service) headState(ctx context.Context, vb *VerifiedBlock, newHead *forkchoicetypes.ProtoBlock) state.BeaconState {
	if newHead.BlockRoot == vb.Block.Root() {
		return vb.PostState
	}
	st, err := s.cfg.StateGen.StateByRoot(ctx, newHead.BlockRoot)
	if err != nil {
		log.WithError(err).WithField("slot", newHead.Slot).Error("Could not get head state")
		return nil
	}
	return st
}
