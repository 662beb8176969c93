package backfill

import (
	"fmt"

	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
)

// ErrorCode classifies why a block sequence was rejected.
type ErrorCode string

const (
	// NotAnchored means the last block of the sequence is not the expected anchor.
	NotAnchored ErrorCode = "NOT_ANCHORED"
	// NotLinear means a block of the sequence is not the parent of the block after it.
	NotLinear ErrorCode = "NOT_LINEAR"
)

// Error is returned when a backfill block sequence does not link to the known chain.
type Error struct {
	Code ErrorCode
	// Slot and Root identify the first block that did not match.
	Slot primitives.Slot
	Root [32]byte
	// Expected is the root the block should have had.
	Expected [32]byte
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: block at slot %d has root %#x, expected %#x", e.Code, e.Slot, e.Root, e.Expected)
}
