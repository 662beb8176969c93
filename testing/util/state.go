package util

import (
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/state"
	state_native "github.com/prysmaticlabs/beacon-ingest/beacon-chain/state/state-native"
	"github.com/prysmaticlabs/beacon-ingest/config/params"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
)

// DefaultValidatorCount is the number of validators of states made by NewBeaconState.
const DefaultValidatorCount = 64

// NewBeaconState creates a beacon state with DefaultValidatorCount active validators
// after applying the given options.
func NewBeaconState(options ...func(f *state_native.Fields) error) (state.BeaconState, error) {
	cfg := params.BeaconConfig()
	f := &state_native.Fields{
		Validators:           make([]*state_native.Validator, DefaultValidatorCount),
		Balances:             make([]primitives.Gwei, DefaultValidatorCount),
		Committees:           make(map[primitives.Slot][][]primitives.ValidatorIndex),
		ValidatorsTreeCached: true,
	}
	for i := range f.Validators {
		f.Validators[i] = &state_native.Validator{
			EffectiveBalance: 32_000_000_000,
			ExitEpoch:        cfg.FarFutureEpoch,
		}
		f.Balances[i] = 32_000_000_000
	}
	for _, opt := range options {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	return state_native.InitializeFromFields(f)
}
