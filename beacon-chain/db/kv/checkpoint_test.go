package kv

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/beacon-ingest/consensus-types/blocks"
	"github.com/prysmaticlabs/beacon-ingest/testing/assert"
	"github.com/prysmaticlabs/beacon-ingest/testing/require"
)

func TestStore_JustifiedCheckpoint_CanSaveRetrieve(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	cp := &blocks.Checkpoint{Epoch: 10, Root: [32]byte{'A'}}
	require.NoError(t, db.SaveJustifiedCheckpoint(ctx, cp))

	retrieved, err := db.JustifiedCheckpoint(ctx)
	require.NoError(t, err)
	assert.DeepEqual(t, cp, retrieved)
}

func TestStore_JustifiedCheckpoint_DefaultIsZeroHash(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	retrieved, err := db.JustifiedCheckpoint(ctx)
	require.NoError(t, err)
	assert.DeepEqual(t, &blocks.Checkpoint{}, retrieved)
}

func TestStore_FinalizedCheckpoint_CanSaveRetrieve(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	blk := testBlock(t, 40, [32]byte{'f'}, [32]byte{'g'})
	require.NoError(t, db.SaveBlock(ctx, blk))
	cp := &blocks.Checkpoint{Epoch: 5, Root: blk.Root()}
	require.NoError(t, db.SaveFinalizedCheckpoint(ctx, cp))

	retrieved, err := db.FinalizedCheckpoint(ctx)
	require.NoError(t, err)
	assert.DeepEqual(t, cp, retrieved)
}

func TestStore_FinalizedCheckpoint_StateMustExist(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	cp := &blocks.Checkpoint{Epoch: 5, Root: [32]byte{'B'}}
	require.ErrorIs(t, db.SaveFinalizedCheckpoint(ctx, cp), errMissingParentBlockInDatabase)
}
