// Package state defines the beacon state interface consumed by the import
// pipeline, the state generator and the caches.
package state

import (
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/blocks"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
)

// BeaconState has read and write access to beacon state methods.
type BeaconState interface {
	ReadOnlyBeaconState
	WriteOnlyBeaconState
	Copy() BeaconState
}

// ReadOnlyBeaconState defines a struct which only has read access to beacon state methods.
type ReadOnlyBeaconState interface {
	Slot() primitives.Slot
	LatestBlockHeader() *blocks.BeaconBlockHeader
	PreviousJustifiedCheckpoint() *blocks.Checkpoint
	CurrentJustifiedCheckpoint() *blocks.Checkpoint
	FinalizedCheckpoint() *blocks.Checkpoint
	NumValidators() int
	ActiveValidatorCount(epoch primitives.Epoch) uint64
	BalanceAtIndex(idx primitives.ValidatorIndex) (primitives.Gwei, error)
	BeaconCommittee(slot primitives.Slot, idx primitives.CommitteeIndex) ([]primitives.ValidatorIndex, error)
	LatestExecutionPayloadBlockHash() [32]byte
	ValidatorsTreeCached() bool
}

// WriteOnlyBeaconState defines a struct which only has write access to beacon state methods.
type WriteOnlyBeaconState interface {
	SetSlot(val primitives.Slot) error
	SetLatestBlockHeader(val *blocks.BeaconBlockHeader) error
	SetPreviousJustifiedCheckpoint(val *blocks.Checkpoint) error
	SetCurrentJustifiedCheckpoint(val *blocks.Checkpoint) error
	SetFinalizedCheckpoint(val *blocks.Checkpoint) error
	SetLatestExecutionPayloadBlockHash(val [32]byte) error
}
