// Package backfill fills the block history below the node's origin block. Block
// sequences are verified against the lowest known block and written to the
// block archive. Backfilled blocks are never imported into fork choice.
package backfill

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/blocks"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

// BackfillDB describes the database methods the StatusUpdater needs.
type BackfillDB interface {
	SaveArchivedBlocks(ctx context.Context, blks []blocks.ROBlock) error
}

// StatusUpdater tracks the lowest block of the node's history. Blocks below it
// are missing until backfill writes them, and the parent root of the lowest
// block is the anchor the next backfilled sequence must end with.
type StatusUpdater struct {
	sync.RWMutex
	store         BackfillDB
	lowSlot       primitives.Slot
	lowRoot       [32]byte
	lowParentRoot [32]byte
}

// NewStatus starts tracking backfill below the origin block.
func NewStatus(store BackfillDB, origin blocks.ROBlock) *StatusUpdater {
	backfillLowSlot.Set(float64(origin.Slot()))
	return &StatusUpdater{
		store:         store,
		lowSlot:       origin.Slot(),
		lowRoot:       origin.Root(),
		lowParentRoot: origin.ParentRoot(),
	}
}

// SlotCovered reports whether the node has the history for the given slot.
func (s *StatusUpdater) SlotCovered(sl primitives.Slot) bool {
	s.RLock()
	defer s.RUnlock()
	return sl == 0 || s.lowSlot <= sl
}

// Anchor returns the root the next backfilled sequence must end with.
func (s *StatusUpdater) Anchor() [32]byte {
	s.RLock()
	defer s.RUnlock()
	return s.lowParentRoot
}

// LowSlot returns the slot of the lowest known block.
func (s *StatusUpdater) LowSlot() primitives.Slot {
	s.RLock()
	defer s.RUnlock()
	return s.lowSlot
}

// Complete reports whether backfill reached genesis.
func (s *StatusUpdater) Complete() bool {
	s.RLock()
	defer s.RUnlock()
	return s.lowSlot == 0
}

// FillBack verifies blks against the current anchor, archives the blocks that
// link to it and moves the anchor below them. It returns the number of archived
// blocks. A rejected sequence returns an *Error; when the sequence broke part way
// the linked blocks are still archived.
func (s *StatusUpdater) FillBack(ctx context.Context, blks []blocks.ROBlock) (int, error) {
	ctx, span := trace.StartSpan(ctx, "backfill.FillBack")
	defer span.End()

	s.Lock()
	defer s.Unlock()

	seq, verifyErr := VerifyBlockSequence(blks, s.lowParentRoot)
	var seqErr *Error
	if errors.As(verifyErr, &seqErr) {
		backfillSequenceErrors.WithLabelValues(string(seqErr.Code)).Inc()
	}
	if len(seq.Blocks) == 0 {
		return 0, verifyErr
	}
	if err := s.store.SaveArchivedBlocks(ctx, seq.Blocks); err != nil {
		return 0, errors.Wrap(err, "could not archive backfilled blocks")
	}

	low := seq.Blocks[0]
	s.lowSlot = low.Slot()
	s.lowRoot = low.Root()
	s.lowParentRoot = low.ParentRoot()
	backfillLowSlot.Set(float64(s.lowSlot))
	backfillArchivedBlocks.Add(float64(len(seq.Blocks)))
	log.WithFields(logrus.Fields{
		"archived": len(seq.Blocks),
		"lowSlot":  s.lowSlot,
	}).Debug("Backfilled blocks")
	return len(seq.Blocks), verifyErr
}
