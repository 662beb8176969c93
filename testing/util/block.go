package util

import (
	"testing"

	"github.com/prysmaticlabs/beacon-ingest/consensus-types/blocks"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-ingest/testing/require"
)

// NewBeaconBlock creates a beacon block with minimum marshalable fields.
func NewBeaconBlock() *blocks.SignedBeaconBlock {
	return &blocks.SignedBeaconBlock{
		Block: &blocks.BeaconBlock{
			Body: &blocks.BeaconBlockBody{
				Attestations:          []*blocks.Attestation{},
				AttesterSlashings:     []*blocks.AttesterSlashing{},
				ProposerSlashings:     []*blocks.ProposerSlashing{},
				VoluntaryExits:        []*blocks.SignedVoluntaryExit{},
				BLSToExecutionChanges: []*blocks.SignedBLSToExecutionChange{},
			},
		},
	}
}

// NewROBlockWithRoot creates an empty block at slot with the given parent, cached
// under root instead of its hash tree root.
func NewROBlockWithRoot(t testing.TB, slot primitives.Slot, root, parentRoot [32]byte) blocks.ROBlock {
	b := NewBeaconBlock()
	b.Block.Slot = slot
	b.Block.ParentRoot = parentRoot
	b.Block.StateRoot = [32]byte{'s', root[0], root[1]}
	rb, err := blocks.NewROBlockWithRoot(b, root)
	require.NoError(t, err)
	return rb
}

// NewROBlock creates an empty block at slot with the given parent.
func NewROBlock(t testing.TB, slot primitives.Slot, parentRoot [32]byte) blocks.ROBlock {
	b := NewBeaconBlock()
	b.Block.Slot = slot
	b.Block.ParentRoot = parentRoot
	rb, err := blocks.NewROBlock(b)
	require.NoError(t, err)
	return rb
}

// NewChain creates count blocks linked parent to child, starting at startSlot with
// the given parent. Slots listed in skip are left empty.
func NewChain(t testing.TB, parentRoot [32]byte, startSlot primitives.Slot, count uint64, skip ...primitives.Slot) []blocks.ROBlock {
	skipped := make(map[primitives.Slot]bool, len(skip))
	for _, s := range skip {
		skipped[s] = true
	}
	chain := make([]blocks.ROBlock, 0, count)
	for slot := startSlot; slot < startSlot.Add(count); slot++ {
		if skipped[slot] {
			continue
		}
		b := NewROBlock(t, slot, parentRoot)
		chain = append(chain, b)
		parentRoot = b.Root()
	}
	return chain
}
