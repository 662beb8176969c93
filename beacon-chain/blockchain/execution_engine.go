package blockchain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/execution"
	"github.com/prysmaticlabs/beacon-ingest/config/params"
	"github.com/prysmaticlabs/beacon-ingest/encoding/bytesutil"
	"github.com/prysmaticlabs/beacon-ingest/time/slots"
	"github.com/sirupsen/logrus"
)

// notifyForkchoiceUpdate sends the head, safe and finalized payload hashes of fork
// choice to the execution engine without waiting for the response. Nothing is sent
// while the head has no payload: the engine must not be notified before the merge.
// Checkpoints without a payload are sent as the zero hash.
func (s *Service) notifyForkchoiceUpdate() {
	if s.cfg.ExecutionEngineCaller == nil {
		return
	}
	fc := s.cfg.ForkChoiceStore
	head := fc.Head()
	headHash := head.ExecutionPayloadBlockHash
	if headHash == params.BeaconConfig().ZeroHash {
		return
	}
	var safeHash, finalizedHash [32]byte
	if justified := fc.JustifiedBlock(); justified != nil {
		safeHash = justified.ExecutionPayloadBlockHash
	}
	if finalized := fc.FinalizedBlock(); finalized != nil {
		finalizedHash = finalized.ExecutionPayloadBlockHash
	}
	fork := params.BeaconConfig().ForkAtEpoch(slots.ToEpoch(head.Slot))
	fcs := &execution.ForkchoiceState{
		HeadBlockHash:      common.Hash(headHash),
		SafeBlockHash:      common.Hash(safeHash),
		FinalizedBlockHash: common.Hash(finalizedHash),
	}

	ctx := s.ctx
	go func() {
		_, err := s.cfg.ExecutionEngineCaller.NotifyForkchoiceUpdate(ctx, fork, fcs)
		if err == nil || ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return
		}
		fields := logrus.Fields{
			"headSlot":           head.Slot,
			"headBlockHash":      fmt.Sprintf("%#x", bytesutil.Trunc(headHash[:])),
			"finalizedBlockHash": fmt.Sprintf("%#x", bytesutil.Trunc(finalizedHash[:])),
		}
		if errors.Is(err, execution.ErrAcceptedSyncingPayloadStatus) {
			log.WithFields(fields).Debug("Called forkchoice updated with optimistic block")
			return
		}
		log.WithError(err).WithFields(fields).Error("Could not notify forkchoice update")
	}()
}
