package state_native

import (
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/blocks"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
)

// SetSlot for the beacon state.
func (b *BeaconState) SetSlot(val primitives.Slot) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.slot = val
	return nil
}

// SetLatestBlockHeader in the beacon state.
func (b *BeaconState) SetLatestBlockHeader(val *blocks.BeaconBlockHeader) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.latestBlockHeader = copyHeader(val)
	return nil
}

// SetPreviousJustifiedCheckpoint for the beacon state.
func (b *BeaconState) SetPreviousJustifiedCheckpoint(val *blocks.Checkpoint) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.previousJustifiedCheckpoint = orZero(val)
	return nil
}

// SetCurrentJustifiedCheckpoint for the beacon state.
func (b *BeaconState) SetCurrentJustifiedCheckpoint(val *blocks.Checkpoint) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.currentJustifiedCheckpoint = orZero(val)
	return nil
}

// SetFinalizedCheckpoint for the beacon state.
func (b *BeaconState) SetFinalizedCheckpoint(val *blocks.Checkpoint) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.finalizedCheckpoint = orZero(val)
	return nil
}

// SetLatestExecutionPayloadBlockHash for the beacon state.
func (b *BeaconState) SetLatestExecutionPayloadBlockHash(val [32]byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.latestExecutionPayloadBlockHash = val
	return nil
}
