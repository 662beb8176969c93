package blockchain

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/blocks"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
)

// indexedAttestation resolves the aggregation bits of an attestation against its
// committee in the given state. Attesting indices are sorted ascending.
func indexedAttestation(st state.ReadOnlyBeaconState, att *blocks.Attestation) (*blocks.IndexedAttestation, error) {
	committee, err := st.BeaconCommittee(att.Data.Slot, att.Data.CommitteeIndex)
	if err != nil {
		return nil, errors.Wrap(err, "could not get attestation committee")
	}
	if att.AggregationBits.Len() != uint64(len(committee)) {
		return nil, errors.Errorf("aggregation bits length %d does not match committee size %d", att.AggregationBits.Len(), len(committee))
	}
	indices := make([]primitives.ValidatorIndex, 0, att.AggregationBits.Count())
	for i, idx := range committee {
		if att.AggregationBits.BitAt(uint64(i)) {
			indices = append(indices, idx)
		}
	}
	sort.Slice(indices, func(i, j int) bool {
		return indices[i] < indices[j]
	})
	return &blocks.IndexedAttestation{
		AttestingIndices: indices,
		Data:             att.Data,
		Signature:        att.Signature,
	}, nil
}
