package backfill

import (
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/blocks"
)

// VerifiedSequence holds the blocks of a sequence that link to the anchor.
type VerifiedSequence struct {
	// Blocks are ordered by ascending slot, each the parent of the next, the last
	// one being the anchor.
	Blocks []blocks.ROBlock
	// NextAnchor is the parent root of the first verified block. The next
	// sequence to backfill has to end with it.
	NextAnchor [32]byte
}

// VerifyBlockSequence checks that blks, ordered by ascending slot, form a chain
// ending at anchorRoot. When the last block is not the anchor nothing is verified
// and a NotAnchored error is returned. When the chain breaks further down, the
// linked part ending at the anchor is returned together with a NotLinear error.
func VerifyBlockSequence(blks []blocks.ROBlock, anchorRoot [32]byte) (*VerifiedSequence, error) {
	seq := &VerifiedSequence{NextAnchor: anchorRoot}
	if len(blks) == 0 {
		return seq, nil
	}
	last := blks[len(blks)-1]
	if last.Root() != anchorRoot {
		return seq, &Error{Code: NotAnchored, Slot: last.Slot(), Root: last.Root(), Expected: anchorRoot}
	}

	expected := anchorRoot
	for i := len(blks) - 1; i >= 0; i-- {
		b := blks[i]
		if b.Root() != expected {
			seq.Blocks = blks[i+1:]
			return seq, &Error{Code: NotLinear, Slot: b.Slot(), Root: b.Root(), Expected: expected}
		}
		expected = b.ParentRoot()
		seq.NextAnchor = expected
	}
	seq.Blocks = blks
	return seq, nil
}
