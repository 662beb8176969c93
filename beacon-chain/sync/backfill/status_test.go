package backfill

import (
	"context"
	"errors"
	"testing"

	testDB "github.com/prysmaticlabs/beacon-ingest/beacon-chain/db/testing"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/blocks"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-ingest/testing/assert"
	"github.com/prysmaticlabs/beacon-ingest/testing/require"
	"github.com/prysmaticlabs/beacon-ingest/testing/util"
)

type failingDB struct{}

func (failingDB) SaveArchivedBlocks(context.Context, []blocks.ROBlock) error {
	return errors.New("disk full")
}

func TestStatusUpdater_FillBack(t *testing.T) {
	ctx := context.Background()
	db := testDB.SetupDB(t)
	genesis := util.NewROBlockWithRoot(t, 0, genesisRoot, [32]byte{})
	chain := append([]blocks.ROBlock{genesis}, util.NewChain(t, genesisRoot, 1, 10)...)
	origin := chain[10]
	su := NewStatus(db, origin)

	assert.Equal(t, origin.ParentRoot(), su.Anchor())
	assert.Equal(t, false, su.SlotCovered(5))
	assert.Equal(t, true, su.SlotCovered(0))
	assert.Equal(t, true, su.SlotCovered(10))

	n, err := su.FillBack(ctx, chain[5:10])
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, primitives.Slot(5), su.LowSlot())
	assert.Equal(t, chain[4].Root(), su.Anchor())
	assert.Equal(t, true, su.SlotCovered(5))
	assert.Equal(t, false, su.Complete())

	archived, err := db.ArchivedBlockBySlot(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, archived)
	assert.Equal(t, chain[7].ParentRoot(), archived.Block.ParentRoot)
	byRoot, err := db.ArchivedBlockByRoot(ctx, chain[9].Root())
	require.NoError(t, err)
	require.NotNil(t, byRoot)
	assert.Equal(t, primitives.Slot(9), byRoot.Block.Slot)

	n, err = su.FillBack(ctx, chain[:5])
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, true, su.Complete())
}

func TestStatusUpdater_FillBackRejected(t *testing.T) {
	ctx := context.Background()
	db := testDB.SetupDB(t)
	chain := util.NewChain(t, genesisRoot, 1, 10)
	su := NewStatus(db, chain[9])

	// Not ending at the anchor.
	n, err := su.FillBack(ctx, chain[2:7])
	var e *Error
	require.Equal(t, true, errors.As(err, &e))
	assert.Equal(t, NotAnchored, e.Code)
	assert.Equal(t, 0, n)
	assert.Equal(t, primitives.Slot(10), su.LowSlot())
	archived, err := db.ArchivedBlockBySlot(ctx, 5)
	require.NoError(t, err)
	assert.IsNil(t, archived)

	// Broken at slot 6, the linked blocks 7 to 9 are kept.
	gapped := []blocks.ROBlock{chain[3], chain[4], chain[6], chain[7], chain[8]}
	n, err = su.FillBack(ctx, gapped)
	require.Equal(t, true, errors.As(err, &e))
	assert.Equal(t, NotLinear, e.Code)
	assert.Equal(t, 3, n)
	assert.Equal(t, primitives.Slot(7), su.LowSlot())
	assert.Equal(t, chain[5].Root(), su.Anchor())
}

func TestStatusUpdater_FillBackSaveError(t *testing.T) {
	chain := util.NewChain(t, genesisRoot, 1, 3)
	su := NewStatus(failingDB{}, chain[2])
	_, err := su.FillBack(context.Background(), chain[:2])
	require.ErrorContains(t, "could not archive backfilled blocks: disk full", err)
	assert.Equal(t, primitives.Slot(3), su.LowSlot())
}
