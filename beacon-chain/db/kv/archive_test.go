package kv

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/db/filters"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/blocks"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-ingest/testing/assert"
	"github.com/prysmaticlabs/beacon-ingest/testing/require"
)

func archiveChain(t *testing.T, db *Store, slots ...primitives.Slot) []blocks.ROBlock {
	blks := make([]blocks.ROBlock, len(slots))
	parent := [32]byte{'g'}
	for i, s := range slots {
		root := [32]byte{'r', byte(s), byte(s >> 8)}
		blks[i] = testBlock(t, s, root, parent)
		parent = root
	}
	require.NoError(t, db.SaveArchivedBlocks(context.Background(), blks))
	return blks
}

func TestStore_ArchivedBlockLookups(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	blks := archiveChain(t, db, 1, 2, 256, 257)

	got, err := db.ArchivedBlockBySlot(ctx, 256)
	require.NoError(t, err)
	assert.DeepEqual(t, blks[2].SignedBeaconBlock, got)

	got, err = db.ArchivedBlockByRoot(ctx, blks[1].Root())
	require.NoError(t, err)
	assert.DeepEqual(t, blks[1].SignedBeaconBlock, got)

	children, err := db.ArchivedBlocksByParentRoot(ctx, blks[2].Root())
	require.NoError(t, err)
	require.Equal(t, 1, len(children))
	assert.DeepEqual(t, blks[3].SignedBeaconBlock, children[0])

	got, err = db.ArchivedBlockBySlot(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, true, got == nil)
}

func TestStore_ArchivedBlocks_Range(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	archiveChain(t, db, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 300)

	tests := []struct {
		name  string
		f     *filters.QueryFilter
		slots []primitives.Slot
	}{
		{
			name:  "end is exclusive",
			f:     filters.NewFilter().SetStartSlot(2).SetEndSlot(5),
			slots: []primitives.Slot{2, 3, 4},
		},
		{
			name:  "step",
			f:     filters.NewFilter().SetStartSlot(0).SetEndSlot(10).SetSlotStep(3),
			slots: []primitives.Slot{0, 3, 6, 9},
		},
		{
			name:  "numeric order across byte boundaries",
			f:     filters.NewFilter().SetStartSlot(9),
			slots: []primitives.Slot{9, 300},
		},
		{
			name:  "parent root",
			f:     filters.NewFilter().SetParentRoot([32]byte{'r', 4}),
			slots: []primitives.Slot{5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blks, err := db.ArchivedBlocks(ctx, tt.f)
			require.NoError(t, err)
			require.Equal(t, len(tt.slots), len(blks))
			for i, b := range blks {
				assert.Equal(t, tt.slots[i], b.Block.Slot)
			}
		})
	}

	_, err := db.ArchivedBlocks(ctx, filters.NewFilter().SetStartSlot(5).SetEndSlot(2))
	require.ErrorIs(t, err, errInvalidSlotRange)
}

func TestStore_DeleteArchivedBlock_CleansIndices(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	blks := archiveChain(t, db, 1, 2)

	require.NoError(t, db.DeleteArchivedBlock(ctx, 2))
	got, err := db.ArchivedBlockByRoot(ctx, blks[1].Root())
	require.NoError(t, err)
	assert.Equal(t, true, got == nil)
	children, err := db.ArchivedBlocksByParentRoot(ctx, blks[0].Root())
	require.NoError(t, err)
	assert.Equal(t, 0, len(children))
}

func TestStore_SaveArchivedBlocks_ReplacesSlot(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	first := testBlock(t, 7, [32]byte{'a'}, [32]byte{'g'})
	second := testBlock(t, 7, [32]byte{'b'}, [32]byte{'h'})
	require.NoError(t, db.SaveArchivedBlocks(ctx, []blocks.ROBlock{first}))
	require.NoError(t, db.SaveArchivedBlocks(ctx, []blocks.ROBlock{second}))

	got, err := db.ArchivedBlockByRoot(ctx, first.Root())
	require.NoError(t, err)
	assert.Equal(t, true, got == nil, "Expected stale root index to be removed")
	got, err = db.ArchivedBlockBySlot(ctx, 7)
	require.NoError(t, err)
	assert.DeepEqual(t, second.SignedBeaconBlock, got)
}
