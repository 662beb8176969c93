package state_native

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/blocks"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
)

// Slot of the current beacon chain state.
func (b *BeaconState) Slot() primitives.Slot {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return b.slot
}

// LatestBlockHeader stored within the beacon state.
func (b *BeaconState) LatestBlockHeader() *blocks.BeaconBlockHeader {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return copyHeader(b.latestBlockHeader)
}

// PreviousJustifiedCheckpoint denoting an epoch and block root.
func (b *BeaconState) PreviousJustifiedCheckpoint() *blocks.Checkpoint {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return b.previousJustifiedCheckpoint.Copy()
}

// CurrentJustifiedCheckpoint denoting an epoch and block root.
func (b *BeaconState) CurrentJustifiedCheckpoint() *blocks.Checkpoint {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return b.currentJustifiedCheckpoint.Copy()
}

// FinalizedCheckpoint denoting an epoch and block root.
func (b *BeaconState) FinalizedCheckpoint() *blocks.Checkpoint {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return b.finalizedCheckpoint.Copy()
}

// NumValidators returns the size of the validator registry.
func (b *BeaconState) NumValidators() int {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return len(b.validators)
}

// ActiveValidatorCount returns the number of validators active at the given epoch.
func (b *BeaconState) ActiveValidatorCount(epoch primitives.Epoch) uint64 {
	b.lock.RLock()
	defer b.lock.RUnlock()
	var count uint64
	for _, v := range b.validators {
		if v.IsActive(epoch) {
			count++
		}
	}
	return count
}

// BalanceAtIndex of validator with the provided index.
func (b *BeaconState) BalanceAtIndex(idx primitives.ValidatorIndex) (primitives.Gwei, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()
	if uint64(len(b.balances)) <= uint64(idx) {
		return 0, errors.Wrapf(state.ErrValidatorIndexOutOfRange, "index %d", idx)
	}
	return b.balances[idx], nil
}

// BeaconCommittee returns the validator indices of the committee at the given slot and index.
func (b *BeaconState) BeaconCommittee(slot primitives.Slot, idx primitives.CommitteeIndex) ([]primitives.ValidatorIndex, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()
	committees, ok := b.committees[slot]
	if !ok || uint64(len(committees)) <= uint64(idx) {
		return nil, errors.Wrapf(state.ErrUnknownCommittee, "slot %d index %d", slot, idx)
	}
	return append([]primitives.ValidatorIndex(nil), committees[idx]...), nil
}

// LatestExecutionPayloadBlockHash of the latest execution payload processed by the state.
func (b *BeaconState) LatestExecutionPayloadBlockHash() [32]byte {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return b.latestExecutionPayloadBlockHash
}

// ValidatorsTreeCached reports whether the validator registry merkle tree is populated.
func (b *BeaconState) ValidatorsTreeCached() bool {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return b.validatorsTreeCached
}
