package blockchain

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/blocks"
	"go.opencensus.io/trace"
)

// BlockVerifier runs the consensus checks and the state transition of a chain
// segment. Blocks are ordered parent first and the result holds one verified
// block per input block, in the same order.
type BlockVerifier interface {
	VerifyBlocks(ctx context.Context, blks []blocks.ROBlock) ([]*VerifiedBlock, error)
}

// ImportBlocks verifies and imports a chain segment ordered parent first. Blocks
// already known to fork choice are skipped. The verified blocks are saved in a
// single database write and then imported one by one.
func (s *Service) ImportBlocks(ctx context.Context, blks []blocks.ROBlock, opts ImportBlockOpts) error {
	ctx, span := trace.StartSpan(ctx, "blockchain.ImportBlocks")
	defer span.End()

	if s.cfg.BlockVerifier == nil {
		return errNilBlockVerifier
	}
	segment := make([]blocks.ROBlock, 0, len(blks))
	for _, b := range blks {
		if b.IsNil() {
			return ErrNilVerifiedBlock
		}
		if s.cfg.ForkChoiceStore.HasNode(b.Root()) {
			continue
		}
		segment = append(segment, b)
	}
	if len(segment) == 0 {
		return nil
	}
	for i := 1; i < len(segment); i++ {
		if segment[i].ParentRoot() != segment[i-1].Root() {
			return errors.Wrapf(ErrNonLinearSegment, "block at slot %d does not descend from block at slot %d",
				segment[i].Slot(), segment[i-1].Slot())
		}
	}

	verified, err := s.cfg.BlockVerifier.VerifyBlocks(ctx, segment)
	if err != nil {
		return errors.Wrap(err, "could not verify chain segment")
	}
	if len(verified) != len(segment) {
		return errors.Wrapf(errWrongBlockCount, "got %d, want %d", len(verified), len(segment))
	}
	// Only saved blocks may reach fork choice.
	for i, vb := range verified {
		if vb == nil || vb.Block.Root() != segment[i].Root() {
			return errors.Wrapf(errVerifiedBlockMismatch, "index %d, slot %d", i, segment[i].Slot())
		}
	}
	if err := s.cfg.BeaconDB.SaveBlocks(ctx, segment); err != nil {
		return errors.Wrap(err, "could not save chain segment")
	}

	opts.EagerPersistBlock = true
	for _, vb := range verified {
		if err := s.ImportBlock(ctx, vb, opts); err != nil {
			return err
		}
	}
	return nil
}
