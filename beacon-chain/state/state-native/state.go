// Package state_native is an in-memory BeaconState holding the fields the
// import pipeline reads from a post-state.
package state_native

import (
	"sync"

	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/blocks"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
)

// Validator is a registry entry.
type Validator struct {
	EffectiveBalance primitives.Gwei
	ActivationEpoch  primitives.Epoch
	ExitEpoch        primitives.Epoch
	Slashed          bool
}

// IsActive reports whether the validator is active at the given epoch.
func (v *Validator) IsActive(epoch primitives.Epoch) bool {
	return v.ActivationEpoch <= epoch && epoch < v.ExitEpoch
}

// Fields is used to initialize a BeaconState.
type Fields struct {
	Slot                            primitives.Slot
	LatestBlockHeader               *blocks.BeaconBlockHeader
	PreviousJustifiedCheckpoint     *blocks.Checkpoint
	CurrentJustifiedCheckpoint      *blocks.Checkpoint
	FinalizedCheckpoint             *blocks.Checkpoint
	Validators                      []*Validator
	Balances                        []primitives.Gwei
	Committees                      map[primitives.Slot][][]primitives.ValidatorIndex
	LatestExecutionPayloadBlockHash [32]byte
	ValidatorsTreeCached            bool
}

// BeaconState defines a struct containing utilities for the beacon state.
type BeaconState struct {
	slot                            primitives.Slot
	latestBlockHeader               *blocks.BeaconBlockHeader
	previousJustifiedCheckpoint     *blocks.Checkpoint
	currentJustifiedCheckpoint      *blocks.Checkpoint
	finalizedCheckpoint             *blocks.Checkpoint
	validators                      []*Validator
	balances                        []primitives.Gwei
	committees                      map[primitives.Slot][][]primitives.ValidatorIndex
	latestExecutionPayloadBlockHash [32]byte
	validatorsTreeCached            bool

	lock sync.RWMutex
}

var _ state.BeaconState = (*BeaconState)(nil)

// InitializeFromFields builds a BeaconState from the given fields. Nil
// checkpoints are replaced by the zero checkpoint.
func InitializeFromFields(f *Fields) (*BeaconState, error) {
	if f == nil {
		return nil, state.ErrNilInnerState
	}
	b := &BeaconState{
		slot:                            f.Slot,
		latestBlockHeader:               copyHeader(f.LatestBlockHeader),
		previousJustifiedCheckpoint:     orZero(f.PreviousJustifiedCheckpoint),
		currentJustifiedCheckpoint:      orZero(f.CurrentJustifiedCheckpoint),
		finalizedCheckpoint:             orZero(f.FinalizedCheckpoint),
		validators:                      make([]*Validator, len(f.Validators)),
		balances:                        make([]primitives.Gwei, len(f.Balances)),
		committees:                      copyCommittees(f.Committees),
		latestExecutionPayloadBlockHash: f.LatestExecutionPayloadBlockHash,
		validatorsTreeCached:            f.ValidatorsTreeCached,
	}
	for i, v := range f.Validators {
		if v == nil {
			v = &Validator{}
		}
		cp := *v
		b.validators[i] = &cp
	}
	copy(b.balances, f.Balances)
	return b, nil
}

// Copy returns a deep copy of the beacon state.
func (b *BeaconState) Copy() state.BeaconState {
	b.lock.RLock()
	defer b.lock.RUnlock()
	dst, err := InitializeFromFields(&Fields{
		Slot:                            b.slot,
		LatestBlockHeader:               b.latestBlockHeader,
		PreviousJustifiedCheckpoint:     b.previousJustifiedCheckpoint,
		CurrentJustifiedCheckpoint:      b.currentJustifiedCheckpoint,
		FinalizedCheckpoint:             b.finalizedCheckpoint,
		Validators:                      b.validators,
		Balances:                        b.balances,
		Committees:                      b.committees,
		LatestExecutionPayloadBlockHash: b.latestExecutionPayloadBlockHash,
		ValidatorsTreeCached:            b.validatorsTreeCached,
	})
	if err != nil {
		return nil
	}
	return dst
}

func orZero(cp *blocks.Checkpoint) *blocks.Checkpoint {
	if cp == nil {
		return &blocks.Checkpoint{}
	}
	return cp.Copy()
}

func copyHeader(h *blocks.BeaconBlockHeader) *blocks.BeaconBlockHeader {
	if h == nil {
		return &blocks.BeaconBlockHeader{}
	}
	cp := *h
	return &cp
}

func copyCommittees(c map[primitives.Slot][][]primitives.ValidatorIndex) map[primitives.Slot][][]primitives.ValidatorIndex {
	dst := make(map[primitives.Slot][][]primitives.ValidatorIndex, len(c))
	for slot, committees := range c {
		cs := make([][]primitives.ValidatorIndex, len(committees))
		for i, committee := range committees {
			cs[i] = append([]primitives.ValidatorIndex(nil), committee...)
		}
		dst[slot] = cs
	}
	return dst
}
