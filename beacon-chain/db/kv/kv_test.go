package kv

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/beacon-ingest/consensus-types/blocks"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-ingest/testing/require"
)

// setupDB instantiates and returns a Store instance.
func setupDB(t testing.TB) *Store {
	db, err := NewKVStore(context.Background(), t.TempDir())
	require.NoError(t, err, "Failed to instantiate DB")
	t.Cleanup(func() {
		require.NoError(t, db.Close(), "Failed to close database")
	})
	return db
}

func testBlock(t testing.TB, slot primitives.Slot, root, parent [32]byte) blocks.ROBlock {
	blk := &blocks.SignedBeaconBlock{
		Block: &blocks.BeaconBlock{
			Slot:       slot,
			ParentRoot: parent,
			Body: &blocks.BeaconBlockBody{
				Graffiti: root,
			},
		},
	}
	rb, err := blocks.NewROBlockWithRoot(blk, root)
	require.NoError(t, err)
	return rb
}
