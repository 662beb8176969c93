package blockchain

import (
	"context"
	"testing"
	"time"

	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/core/feed"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/db/iface"
	testDB "github.com/prysmaticlabs/beacon-ingest/beacon-chain/db/testing"
	mockExecution "github.com/prysmaticlabs/beacon-ingest/beacon-chain/execution/testing"
	doublylinkedtree "github.com/prysmaticlabs/beacon-ingest/beacon-chain/forkchoice/doubly-linked-tree"
	forkchoicetypes "github.com/prysmaticlabs/beacon-ingest/beacon-chain/forkchoice/types"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/state"
	state_native "github.com/prysmaticlabs/beacon-ingest/beacon-chain/state/state-native"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/state/stategen"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/blocks"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-ingest/testing/assert"
	"github.com/prysmaticlabs/beacon-ingest/testing/require"
	"github.com/prysmaticlabs/beacon-ingest/testing/util"
	"github.com/prysmaticlabs/beacon-ingest/time/slots"
)

var genesisRoot = [32]byte{'g'}

type testHarness struct {
	service  *Service
	db       iface.Database
	stateGen *stategen.State
	bus      *feed.Bus
	engine   *mockExecution.EngineClient
	genesis  time.Time
	now      time.Time
}

// setSlot moves the wall clock one second into the given slot.
func (h *testHarness) setSlot(slot primitives.Slot) {
	h.now = slots.StartTime(h.genesis, slot).Add(time.Second)
}

func setupService(t *testing.T, opts ...Option) *testHarness {
	ctx := context.Background()
	h := &testHarness{
		db:       testDB.SetupDB(t),
		stateGen: stategen.New(),
		bus:      feed.NewBus(),
		engine:   &mockExecution.EngineClient{Notified: make(chan mockExecution.ForkchoiceCall, 8)},
		genesis:  time.Unix(1_600_000_000, 0),
	}
	h.setSlot(0)

	genesisBlock := util.NewROBlockWithRoot(t, 0, genesisRoot, [32]byte{})
	require.NoError(t, h.db.SaveBlock(ctx, genesisBlock))
	genesisState, err := util.NewBeaconState()
	require.NoError(t, err)
	h.stateGen.UpdateHeadState(genesisRoot, genesisState)

	fc, err := doublylinkedtree.New(&forkchoicetypes.ProtoBlock{
		BlockRoot: genesisRoot,
		StateRoot: genesisBlock.Block.StateRoot,
	})
	require.NoError(t, err)

	opts = append([]Option{
		WithDatabase(h.db),
		WithForkChoiceStore(fc),
		WithStateGen(h.stateGen),
		WithStateNotifier(h.bus),
		WithExecutionEngineCaller(h.engine),
		WithClock(NewClock(h.genesis, WithNow(func() time.Time { return h.now }))),
	}, opts...)
	h.service, err = New(ctx, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, h.service.Stop())
		h.bus.Close()
	})
	return h
}

// postState creates a post-state at slot with the given checkpoints.
func postState(t *testing.T, slot primitives.Slot, justified, finalized *blocks.Checkpoint, opts ...func(f *state_native.Fields) error) state.BeaconState {
	opts = append([]func(f *state_native.Fields) error{func(f *state_native.Fields) error {
		f.Slot = slot
		f.CurrentJustifiedCheckpoint = justified
		f.PreviousJustifiedCheckpoint = justified
		f.FinalizedCheckpoint = finalized
		return nil
	}}, opts...)
	st, err := util.NewBeaconState(opts...)
	require.NoError(t, err)
	return st
}

// verifiedBlock creates an empty verified block at slot whose post-state keeps the genesis checkpoints.
func verifiedBlock(t *testing.T, slot primitives.Slot, root, parentRoot [32]byte) *VerifiedBlock {
	return &VerifiedBlock{
		Block:           util.NewROBlockWithRoot(t, slot, root, parentRoot),
		Source:          blocks.SourceGossip,
		PostState:       postState(t, slot, nil, nil),
		ExecutionStatus: forkchoicetypes.PreMerge,
	}
}

func TestNew_MissingDependencies(t *testing.T) {
	ctx := context.Background()
	_, err := New(ctx)
	require.ErrorContains(t, "database", err)

	_, err = New(ctx, WithDatabase(testDB.SetupDB(t)))
	require.ErrorContains(t, "fork choice store", err)

	fc, err := doublylinkedtree.New(&forkchoicetypes.ProtoBlock{BlockRoot: genesisRoot})
	require.NoError(t, err)
	_, err = New(ctx, WithDatabase(testDB.SetupDB(t)), WithForkChoiceStore(fc))
	require.ErrorContains(t, "state generator", err)
}

func TestNew_Defaults(t *testing.T) {
	fc, err := doublylinkedtree.New(&forkchoicetypes.ProtoBlock{BlockRoot: genesisRoot})
	require.NoError(t, err)
	s, err := New(context.Background(), WithDatabase(testDB.SetupDB(t)), WithForkChoiceStore(fc), WithStateGen(stategen.New()))
	require.NoError(t, err)
	assert.NotNil(t, s.StateNotifier())
	assert.NotNil(t, s.Clock())
	assert.NoError(t, s.Status())
	assert.Equal(t, genesisRoot, s.HeadRoot())
	assert.Equal(t, primitives.Slot(0), s.HeadSlot())
	require.NoError(t, s.Stop())
}

func TestService_HeadAccessors(t *testing.T) {
	h := setupService(t)
	s := h.service
	assert.Equal(t, genesisRoot, s.HeadRoot())
	assert.NotNil(t, s.HeadState())
	assert.Equal(t, false, s.IsOptimistic())
	assert.Equal(t, true, s.HasBlock(genesisRoot))
	assert.Equal(t, false, s.HasBlock([32]byte{'x'}))
	assert.Equal(t, primitives.Epoch(0), s.FinalizedCheckpoint().Epoch)
	assert.Equal(t, genesisRoot, s.JustifiedCheckpoint().Root)
}
