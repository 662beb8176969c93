package blockchain

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/core/feed"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/db/iface"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/execution"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/forkchoice"
	forkchoicetypes "github.com/prysmaticlabs/beacon-ingest/beacon-chain/forkchoice/types"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/state"
	state_native "github.com/prysmaticlabs/beacon-ingest/beacon-chain/state/state-native"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/state/stategen"
	"github.com/prysmaticlabs/beacon-ingest/config/features"
	"github.com/prysmaticlabs/beacon-ingest/config/params"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/blocks"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-ingest/testing/assert"
	"github.com/prysmaticlabs/beacon-ingest/testing/require"
	"github.com/prysmaticlabs/beacon-ingest/testing/util"
	"github.com/prysmaticlabs/go-bitfield"
	"github.com/sirupsen/logrus"
	logTest "github.com/sirupsen/logrus/hooks/test"
)

// recordingForkChoice records calls made to the wrapped fork choice store.
type recordingForkChoice struct {
	forkchoice.ForkChoicer
	db               iface.ReadOnlyDatabase
	persistedOnBlock []bool
	attestations     int
	slashings        int
}

func (f *recordingForkChoice) OnBlock(
	ctx context.Context,
	blk blocks.ROBlock,
	st state.ReadOnlyBeaconState,
	blockDelaySec uint64,
	currentSlot primitives.Slot,
	executionStatus forkchoicetypes.ExecutionStatus,
	daStatus forkchoicetypes.DataAvailabilityStatus,
) (*forkchoicetypes.ProtoBlock, error) {
	f.persistedOnBlock = append(f.persistedOnBlock, f.db.HasBlock(ctx, blk.Root()))
	return f.ForkChoicer.OnBlock(ctx, blk, st, blockDelaySec, currentSlot, executionStatus, daStatus)
}

func (f *recordingForkChoice) OnAttestation(ctx context.Context, att *blocks.IndexedAttestation, dataRoot [32]byte, force bool) error {
	f.attestations++
	return f.ForkChoicer.OnAttestation(ctx, att, dataRoot, force)
}

func (f *recordingForkChoice) OnAttesterSlashing(slashing *blocks.AttesterSlashing) error {
	f.slashings++
	return f.ForkChoicer.OnAttesterSlashing(slashing)
}

func wrapForkChoice(h *testHarness) *recordingForkChoice {
	rec := &recordingForkChoice{ForkChoicer: h.service.cfg.ForkChoiceStore, db: h.db}
	h.service.cfg.ForkChoiceStore = rec
	return rec
}

type reprocessCall struct {
	slot         primitives.Slot
	root         [32]byte
	advancedSlot primitives.Slot
}

type mockReprocess struct {
	calls []reprocessCall
}

func (m *mockReprocess) OnBlockImported(slot primitives.Slot, root [32]byte, advancedSlot primitives.Slot) {
	m.calls = append(m.calls, reprocessCall{slot: slot, root: root, advancedSlot: advancedSlot})
}

type mockLightClient struct {
	parentSlots []primitives.Slot
}

func (m *mockLightClient) OnImportBlockHead(_ blocks.ROBlock, _ state.BeaconState, parentBlockSlot primitives.Slot) error {
	m.parentSlots = append(m.parentSlots, parentBlockSlot)
	return nil
}

func subscribe(t *testing.T, h *testHarness, kind feed.EventType) chan *feed.Event {
	ch := make(chan *feed.Event, 8)
	sub := h.bus.Subscribe(kind, ch)
	t.Cleanup(sub.Unsubscribe)
	return ch
}

func committeeAt(slot primitives.Slot, committee ...primitives.ValidatorIndex) func(f *state_native.Fields) error {
	return func(f *state_native.Fields) error {
		f.Committees[slot] = [][]primitives.ValidatorIndex{committee}
		return nil
	}
}

// attestation votes for beaconRoot at slot with target (epoch of slot, targetRoot).
// Bits are set for the given committee positions of a committee of size n.
func attestation(slot primitives.Slot, beaconRoot, targetRoot [32]byte, n uint64, positions ...uint64) *blocks.Attestation {
	bits := bitfield.NewBitlist(n)
	for _, p := range positions {
		bits.SetBitAt(p, true)
	}
	return &blocks.Attestation{
		AggregationBits: bits,
		Data: &blocks.AttestationData{
			Slot:            slot,
			BeaconBlockRoot: beaconRoot,
			Source:          &blocks.Checkpoint{},
			Target:          &blocks.Checkpoint{Epoch: primitives.Epoch(slot / params.BeaconConfig().SlotsPerEpoch), Root: targetRoot},
		},
	}
}

func TestImportBlock_PersistsBeforeForkChoice(t *testing.T) {
	ctx := context.Background()
	h := setupService(t)
	rec := wrapForkChoice(h)
	h.setSlot(1)

	vb := verifiedBlock(t, 1, [32]byte{'a'}, genesisRoot)
	require.NoError(t, h.service.ImportBlock(ctx, vb, ImportBlockOpts{}))
	require.DeepEqual(t, []bool{true}, rec.persistedOnBlock)
	assert.Equal(t, true, h.db.HasBlock(ctx, vb.Block.Root()))
	assert.Equal(t, true, h.service.HasBlock(vb.Block.Root()))
}

func TestImportBlock_EagerPersistSkipsSave(t *testing.T) {
	ctx := context.Background()
	h := setupService(t)
	rec := wrapForkChoice(h)
	h.setSlot(1)

	vb := verifiedBlock(t, 1, [32]byte{'a'}, genesisRoot)
	require.NoError(t, h.service.ImportBlock(ctx, vb, ImportBlockOpts{EagerPersistBlock: true}))
	require.DeepEqual(t, []bool{false}, rec.persistedOnBlock)
	assert.Equal(t, false, h.db.HasBlock(ctx, vb.Block.Root()))
	assert.Equal(t, true, h.service.HasBlock(vb.Block.Root()))
}

func TestImportBlock_FatalErrors(t *testing.T) {
	ctx := context.Background()
	h := setupService(t)
	h.setSlot(1)

	err := h.service.ImportBlock(ctx, nil, ImportBlockOpts{})
	require.ErrorIs(t, err, ErrNilVerifiedBlock)

	vb := verifiedBlock(t, 1, [32]byte{'a'}, genesisRoot)
	vb.PostState = nil
	err = h.service.ImportBlock(ctx, vb, ImportBlockOpts{})
	require.ErrorIs(t, err, ErrNilPostState)

	orphan := verifiedBlock(t, 1, [32]byte{'o'}, [32]byte{'z'})
	err = h.service.ImportBlock(ctx, orphan, ImportBlockOpts{})
	require.ErrorContains(t, "could not process block from slot 1 in fork choice", err)
	assert.Equal(t, false, h.service.HasBlock(orphan.Block.Root()))
	assert.Equal(t, genesisRoot, h.service.HeadRoot())
}

func TestImportBlock_NewHead(t *testing.T) {
	ctx := context.Background()
	h := setupService(t)
	headCh := subscribe(t, h, feed.HeadEvent)
	reorgCh := subscribe(t, h, feed.ChainReorgEvent)
	h.setSlot(1)

	root := [32]byte{'a'}
	vb := verifiedBlock(t, 1, root, genesisRoot)
	require.NoError(t, h.service.ImportBlock(ctx, vb, ImportBlockOpts{}))

	require.Equal(t, 1, len(headCh))
	ev := <-headCh
	data, ok := ev.Data.(*feed.HeadEventData)
	require.Equal(t, true, ok)
	assert.Equal(t, primitives.Slot(1), data.Slot)
	assert.Equal(t, root, data.Block)
	assert.Equal(t, vb.Block.Block.StateRoot, data.State)
	assert.Equal(t, false, data.EpochTransition)
	assert.Equal(t, genesisRoot, data.PreviousDutyDependentRoot)
	assert.Equal(t, genesisRoot, data.CurrentDutyDependentRoot)
	assert.Equal(t, 0, len(reorgCh))

	assert.Equal(t, root, h.service.HeadRoot())
	headRoot, headState := h.stateGen.HeadState()
	assert.Equal(t, root, headRoot)
	assert.Equal(t, vb.PostState, headState)
	dbHead, err := h.db.HeadBlockRoot(ctx)
	require.NoError(t, err)
	assert.Equal(t, root, dbHead)
}

func TestImportBlock_NoHeadChange(t *testing.T) {
	ctx := context.Background()
	h := setupService(t)
	headCh := subscribe(t, h, feed.HeadEvent)
	reorgCh := subscribe(t, h, feed.ChainReorgEvent)
	h.setSlot(1)

	head := verifiedBlock(t, 1, [32]byte{0x02}, genesisRoot)
	require.NoError(t, h.service.ImportBlock(ctx, head, ImportBlockOpts{}))
	require.Equal(t, 1, len(headCh))
	<-headCh

	// Equal weight, the sibling with the smaller root does not become head.
	sibling := verifiedBlock(t, 1, [32]byte{0x01}, genesisRoot)
	require.NoError(t, h.service.ImportBlock(ctx, sibling, ImportBlockOpts{}))
	assert.Equal(t, 0, len(headCh))
	assert.Equal(t, 0, len(reorgCh))
	assert.Equal(t, head.Block.Root(), h.service.HeadRoot())
	assert.Equal(t, true, h.db.HasBlock(ctx, sibling.Block.Root()))
	assert.Equal(t, true, h.service.HasBlock(sibling.Block.Root()))
}

func TestImportBlock_Reorg(t *testing.T) {
	ctx := context.Background()
	hook := logTest.NewGlobal()
	h := setupService(t)
	headCh := subscribe(t, h, feed.HeadEvent)
	reorgCh := subscribe(t, h, feed.ChainReorgEvent)

	h.setSlot(1)
	oldHead := verifiedBlock(t, 1, [32]byte{0x01}, genesisRoot)
	require.NoError(t, h.service.ImportBlock(ctx, oldHead, ImportBlockOpts{}))
	assert.Equal(t, 0, len(reorgCh))

	h.setSlot(2)
	newHead := verifiedBlock(t, 2, [32]byte{0x02}, genesisRoot)
	require.NoError(t, h.service.ImportBlock(ctx, newHead, ImportBlockOpts{}))
	require.Equal(t, 2, len(headCh))
	require.Equal(t, 1, len(reorgCh))
	ev := <-reorgCh
	data, ok := ev.Data.(*feed.ChainReorgEventData)
	require.Equal(t, true, ok)
	assert.Equal(t, uint64(1), data.Depth)
	assert.Equal(t, primitives.Slot(2), data.Slot)
	assert.Equal(t, primitives.Epoch(0), data.Epoch)
	assert.Equal(t, oldHead.Block.Root(), data.OldHeadBlock)
	assert.Equal(t, newHead.Block.Root(), data.NewHeadBlock)
	assert.Equal(t, oldHead.Block.Block.StateRoot, data.OldHeadState)
	assert.Equal(t, newHead.Block.Block.StateRoot, data.NewHeadState)
	require.LogsContain(t, hook, "Chain reorg occurred")

	// Extending the new head is not a reorg.
	h.setSlot(3)
	child := verifiedBlock(t, 3, [32]byte{0x03}, newHead.Block.Root())
	require.NoError(t, h.service.ImportBlock(ctx, child, ImportBlockOpts{}))
	assert.Equal(t, 0, len(reorgCh))
	assert.Equal(t, child.Block.Root(), h.service.HeadRoot())
}

func TestImportBlock_AttestationWindows(t *testing.T) {
	spe := params.BeaconConfig().SlotsPerEpoch
	tests := []struct {
		name             string
		blockSlot        primitives.Slot
		attSlot          primitives.Slot
		mode             ImportAttestationsMode
		wantForkChoice   int
		wantSeenAttester bool
	}{
		{
			name:             "target inside window",
			blockSlot:        5 * spe,
			attSlot:          5 * spe,
			wantForkChoice:   1,
			wantSeenAttester: true,
		},
		{
			name:             "target outside window",
			blockSlot:        5 * spe,
			attSlot:          2 * spe,
			wantForkChoice:   0,
			wantSeenAttester: true,
		},
		{
			name:             "target outside window forced",
			blockSlot:        5 * spe,
			attSlot:          2 * spe,
			mode:             ImportAttestationsForce,
			wantForkChoice:   1,
			wantSeenAttester: true,
		},
		{
			name:      "skipped",
			blockSlot: 5 * spe,
			attSlot:   5 * spe,
			mode:      ImportAttestationsSkip,
		},
		{
			name:      "block older than window",
			blockSlot: 3 * spe,
			attSlot:   3 * spe,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hook := logTest.NewGlobal()
			ctx := context.Background()
			h := setupService(t)
			rec := wrapForkChoice(h)
			h.setSlot(5 * spe)

			vb := verifiedBlock(t, tt.blockSlot, [32]byte{'b'}, genesisRoot)
			vb.PostState = postState(t, tt.blockSlot, nil, nil, committeeAt(tt.attSlot, 10, 11, 12))
			vb.Block.Body().Attestations = []*blocks.Attestation{attestation(tt.attSlot, genesisRoot, genesisRoot, 3, 0, 2)}
			require.NoError(t, h.service.ImportBlock(ctx, vb, ImportBlockOpts{ImportAttestations: tt.mode}))

			assert.Equal(t, tt.wantForkChoice, rec.attestations)
			blockEpoch := primitives.Epoch(tt.blockSlot / spe)
			assert.Equal(t, tt.wantSeenAttester, h.service.seenBlockAttesters.IsKnown(blockEpoch, 10))
			assert.Equal(t, tt.wantSeenAttester, h.service.seenBlockAttesters.IsKnown(blockEpoch, 12))
			assert.Equal(t, false, h.service.seenBlockAttesters.IsKnown(blockEpoch, 11))
			require.LogsDoNotContain(t, hook, "Could not process attestation")
		})
	}
}

func TestImportBlock_AggregatesAttestationErrors(t *testing.T) {
	hook := logTest.NewGlobal()
	ctx := context.Background()
	spe := params.BeaconConfig().SlotsPerEpoch
	h := setupService(t)
	h.setSlot(5 * spe)

	slot := 5 * spe
	unknown := [32]byte{'u'}
	vb := verifiedBlock(t, slot, [32]byte{'b'}, genesisRoot)
	vb.PostState = postState(t, slot, nil, nil, committeeAt(slot, 1, 2, 3))
	vb.Block.Body().Attestations = []*blocks.Attestation{
		attestation(slot, unknown, genesisRoot, 3, 0),
		attestation(slot, unknown, genesisRoot, 3, 1),
		attestation(slot, unknown, genesisRoot, 3, 2),
		// Bits do not match the committee size.
		attestation(slot, genesisRoot, genesisRoot, 5, 0),
	}
	require.NoError(t, h.service.ImportBlock(ctx, vb, ImportBlockOpts{}))

	aggregated := 0
	for _, e := range hook.AllEntries() {
		if e.Message != "Could not process attestations from block" {
			continue
		}
		aggregated++
		assert.Equal(t, 3, e.Data["erroredAttestations"])
	}
	assert.Equal(t, 1, aggregated)
	require.LogsContain(t, hook, "Could not process attestation from block")
	assert.Equal(t, vb.Block.Root(), h.service.HeadRoot())
}

func TestImportBlock_AttesterSlashingWindow(t *testing.T) {
	spe := params.BeaconConfig().SlotsPerEpoch
	slashing := &blocks.AttesterSlashing{
		Attestation1: &blocks.IndexedAttestation{AttestingIndices: []primitives.ValidatorIndex{1, 2}, Data: &blocks.AttestationData{}},
		Attestation2: &blocks.IndexedAttestation{AttestingIndices: []primitives.ValidatorIndex{2, 3}, Data: &blocks.AttestationData{}},
	}
	tests := []struct {
		name       string
		blockEpoch primitives.Epoch
		mode       ImportAttestationsMode
		want       int
	}{
		{name: "inside window", blockEpoch: 4, want: 1},
		{name: "outside window", blockEpoch: 3, want: 0},
		{name: "outside window forced", blockEpoch: 3, mode: ImportAttestationsForce, want: 1},
		{name: "skipped", blockEpoch: 9, mode: ImportAttestationsSkip, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := setupService(t)
			rec := wrapForkChoice(h)
			h.setSlot(10 * spe)

			slot := primitives.Slot(tt.blockEpoch) * spe
			vb := verifiedBlock(t, slot, [32]byte{'b'}, genesisRoot)
			vb.Block.Body().AttesterSlashings = []*blocks.AttesterSlashing{slashing}
			require.NoError(t, h.service.ImportBlock(context.Background(), vb, ImportBlockOpts{ImportAttestations: tt.mode}))
			assert.Equal(t, tt.want, rec.slashings)
		})
	}
}

func TestImportBlock_CheckpointsNotifiedOncePerAdvance(t *testing.T) {
	ctx := context.Background()
	spe := params.BeaconConfig().SlotsPerEpoch
	h := setupService(t)
	finalizedCh := subscribe(t, h, feed.FinalizedCheckpointEvent)
	checkpointCh := subscribe(t, h, feed.CheckpointEvent)
	h.setSlot(4 * spe)

	cp := &blocks.Checkpoint{Epoch: 1, Root: genesisRoot}
	b1 := verifiedBlock(t, spe, [32]byte{'1'}, genesisRoot)
	b1.PostState = postState(t, spe, cp, cp)
	require.NoError(t, h.service.ImportBlock(ctx, b1, ImportBlockOpts{}))

	require.Equal(t, 1, len(finalizedCh))
	ev := <-finalizedCh
	data, ok := ev.Data.(*feed.FinalizedCheckpointEventData)
	require.Equal(t, true, ok)
	assert.Equal(t, primitives.Epoch(1), data.Epoch)
	assert.Equal(t, genesisRoot, data.Block)
	assert.Equal(t, b1.Block.Block.StateRoot, data.State)

	require.Equal(t, 1, len(checkpointCh))
	ev = <-checkpointCh
	cpData, ok := ev.Data.(*feed.CheckpointEventData)
	require.Equal(t, true, ok)
	assert.DeepEqual(t, &blocks.Checkpoint{Epoch: 1, Root: b1.Block.Root()}, cpData.Checkpoint)
	cached, err := h.stateGen.CheckpointState(&blocks.Checkpoint{Epoch: 1, Root: b1.Block.Root()})
	require.NoError(t, err)
	assert.NotNil(t, cached)

	// Same finalized epoch as the parent.
	b2 := verifiedBlock(t, 2*spe, [32]byte{'2'}, b1.Block.Root())
	b2.PostState = postState(t, 2*spe, cp, cp)
	require.NoError(t, h.service.ImportBlock(ctx, b2, ImportBlockOpts{}))
	b2Sibling := verifiedBlock(t, 2*spe+1, [32]byte{'3'}, b1.Block.Root())
	b2Sibling.PostState = postState(t, 2*spe+1, cp, cp)
	require.NoError(t, h.service.ImportBlock(ctx, b2Sibling, ImportBlockOpts{}))
	// Lower finalized epoch than the parent, finality never moves back.
	b3 := verifiedBlock(t, 3*spe, [32]byte{'4'}, b1.Block.Root())
	require.NoError(t, h.service.ImportBlock(ctx, b3, ImportBlockOpts{}))

	assert.Equal(t, 0, len(finalizedCh))
	assert.Equal(t, 2, len(checkpointCh))
	assert.Equal(t, primitives.Epoch(1), h.service.FinalizedCheckpoint().Epoch)
	saved, err := h.db.FinalizedCheckpoint(ctx)
	require.NoError(t, err)
	assert.DeepEqual(t, cp, saved)
}

func TestImportBlock_MonotonicFinality(t *testing.T) {
	ctx := context.Background()
	spe := params.BeaconConfig().SlotsPerEpoch
	h := setupService(t)
	h.setSlot(10 * spe)

	finalized := []primitives.Epoch{1, 0, 2, 1, 2, 0}
	parent := genesisRoot
	var last primitives.Epoch
	for i, epoch := range finalized {
		slot := primitives.Slot(i+1) * spe
		root := [32]byte{'c', byte(i)}
		cp := &blocks.Checkpoint{Epoch: epoch, Root: genesisRoot}
		vb := verifiedBlock(t, slot, root, parent)
		vb.PostState = postState(t, slot, cp, cp)
		require.NoError(t, h.service.ImportBlock(ctx, vb, ImportBlockOpts{}))
		got := h.service.FinalizedCheckpoint().Epoch
		require.Equal(t, true, got >= last, "finalized epoch went from %d to %d", last, got)
		last = got
		parent = root
	}
	assert.Equal(t, primitives.Epoch(2), last)
}

func TestImportBlock_EngineNotification(t *testing.T) {
	ctx := context.Background()
	payload := func(vb *VerifiedBlock, hash [32]byte) *VerifiedBlock {
		vb.Block.Body().ExecutionPayload = &blocks.ExecutionPayload{BlockHash: hash}
		return vb
	}

	t.Run("head change is sent", func(t *testing.T) {
		h := setupService(t)
		h.setSlot(1)
		vb := payload(verifiedBlock(t, 1, [32]byte{0x02}, genesisRoot), [32]byte{'e'})
		require.NoError(t, h.service.ImportBlock(ctx, vb, ImportBlockOpts{}))
		select {
		case call := <-h.engine.Notified:
			assert.Equal(t, common.Hash{'e'}, call.State.HeadBlockHash)
			assert.Equal(t, common.Hash{}, call.State.SafeBlockHash)
			assert.Equal(t, common.Hash{}, call.State.FinalizedBlockHash)
			assert.Equal(t, params.ForkPhase0, call.Fork)
		case <-time.After(time.Second):
			t.Fatal("no forkchoice update received")
		}

		// No head or finality change, no update.
		sibling := payload(verifiedBlock(t, 1, [32]byte{0x01}, genesisRoot), [32]byte{'f'})
		require.NoError(t, h.service.ImportBlock(ctx, sibling, ImportBlockOpts{}))
		assert.Equal(t, 1, len(h.engine.ForkchoiceCalls()))
	})
	t.Run("pre-merge head is not sent", func(t *testing.T) {
		h := setupService(t)
		h.setSlot(1)
		require.NoError(t, h.service.ImportBlock(ctx, verifiedBlock(t, 1, [32]byte{'a'}, genesisRoot), ImportBlockOpts{}))
		assert.NotEqual(t, genesisRoot, h.service.HeadRoot())
		assert.Equal(t, 0, len(h.engine.ForkchoiceCalls()))
	})
	t.Run("disabled by flag", func(t *testing.T) {
		resetCfg := features.InitWithReset(&features.Flags{DisableImportExecutionFCU: true})
		defer resetCfg()
		h := setupService(t)
		h.setSlot(1)
		vb := payload(verifiedBlock(t, 1, [32]byte{'a'}, genesisRoot), [32]byte{'e'})
		require.NoError(t, h.service.ImportBlock(ctx, vb, ImportBlockOpts{}))
		assert.Equal(t, 0, len(h.engine.ForkchoiceCalls()))
	})
}

// waitForLog polls the hook until an entry with msg is logged.
func waitForLog(t *testing.T, hook *logTest.Hook, msg string) *logrus.Entry {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		for _, e := range hook.AllEntries() {
			if e.Message == msg {
				return e
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for log %q", msg)
	return nil
}

func TestImportBlock_EngineResponseLogging(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		err   error
		msg   string
		level logrus.Level
	}{
		{
			name:  "syncing",
			err:   execution.ErrAcceptedSyncingPayloadStatus,
			msg:   "Called forkchoice updated with optimistic block",
			level: logrus.DebugLevel,
		},
		{
			name:  "invalid",
			err:   execution.ErrInvalidPayloadStatus,
			msg:   "Could not notify forkchoice update",
			level: logrus.ErrorLevel,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level := logrus.GetLevel()
			logrus.SetLevel(logrus.DebugLevel)
			defer logrus.SetLevel(level)
			hook := logTest.NewGlobal()

			h := setupService(t)
			h.engine.Err = tt.err
			h.setSlot(1)
			vb := verifiedBlock(t, 1, [32]byte{'a'}, genesisRoot)
			vb.Block.Body().ExecutionPayload = &blocks.ExecutionPayload{BlockHash: [32]byte{'e'}}
			require.NoError(t, h.service.ImportBlock(ctx, vb, ImportBlockOpts{}))

			entry := waitForLog(t, hook, tt.msg)
			assert.Equal(t, tt.level, entry.Level)
			if tt.level != logrus.ErrorLevel {
				require.LogsDoNotContain(t, hook, "Could not notify forkchoice update")
			}
		})
	}
}

func TestImportBlock_DeferredBlockEvents(t *testing.T) {
	ctx := context.Background()
	h := setupService(t)
	blockCh := subscribe(t, h, feed.BlockEvent)
	exitCh := subscribe(t, h, feed.VoluntaryExitEvent)
	blobCh := subscribe(t, h, feed.BlobSidecarEvent)
	h.setSlot(1)

	vb := verifiedBlock(t, 1, [32]byte{'a'}, genesisRoot)
	body := vb.Block.Body()
	body.VoluntaryExits = []*blocks.SignedVoluntaryExit{{Exit: &blocks.VoluntaryExit{ValidatorIndex: 7}}}
	commitment := [48]byte{'k'}
	body.BlobKzgCommitments = [][48]byte{commitment}
	vb.Blobs = util.NewBlobSidecars(t, vb.Block)
	vb.DataAvailabilityStatus = forkchoicetypes.Available
	require.NoError(t, h.service.ImportBlock(ctx, vb, ImportBlockOpts{}))

	// Fan-out runs after the import returned.
	assert.Equal(t, 0, len(blockCh))
	assert.Equal(t, 1, h.service.deferred.Drain())

	require.Equal(t, 1, len(blockCh))
	blockData, ok := (<-blockCh).Data.(*feed.BlockEventData)
	require.Equal(t, true, ok)
	assert.Equal(t, primitives.Slot(1), blockData.Slot)
	assert.Equal(t, vb.Block.Root(), blockData.Block)

	require.Equal(t, 1, len(exitCh))
	exit, ok := (<-exitCh).Data.(*blocks.SignedVoluntaryExit)
	require.Equal(t, true, ok)
	assert.Equal(t, primitives.ValidatorIndex(7), exit.Exit.ValidatorIndex)

	require.Equal(t, 1, len(blobCh))
	blobData, ok := (<-blobCh).Data.(*feed.BlobSidecarEventData)
	require.Equal(t, true, ok)
	assert.Equal(t, vb.Block.Root(), blobData.BlockRoot)
	assert.Equal(t, uint64(0), blobData.Index)
	assert.Equal(t, commitment, blobData.KzgCommitment)
	assert.Equal(t, blocks.KzgToVersionedHash(commitment[:]), blobData.VersionedHash)
}

func TestImportBlock_OldBlocksDoNotFanOut(t *testing.T) {
	ctx := context.Background()
	h := setupService(t)
	blockCh := subscribe(t, h, feed.BlockEvent)
	recent := params.BeaconConfig().EventStreamRecentBlockSlots
	h.setSlot(10 + recent)

	require.NoError(t, h.service.ImportBlock(ctx, verifiedBlock(t, 10, [32]byte{'a'}, genesisRoot), ImportBlockOpts{}))
	h.service.deferred.Drain()
	assert.Equal(t, 0, len(blockCh))

	require.NoError(t, h.service.ImportBlock(ctx, verifiedBlock(t, 11, [32]byte{'b'}, genesisRoot), ImportBlockOpts{}))
	h.service.deferred.Drain()
	assert.Equal(t, 1, len(blockCh))
}

func TestImportBlock_DeferredWorkRunsBeforeNextImport(t *testing.T) {
	ctx := context.Background()
	reprocess := &mockReprocess{}
	h := setupService(t, WithReprocessController(reprocess))
	h.setSlot(1)

	a := verifiedBlock(t, 1, [32]byte{'a'}, genesisRoot)
	require.NoError(t, h.service.ImportBlock(ctx, a, ImportBlockOpts{}))
	assert.Equal(t, 0, len(reprocess.calls))

	h.setSlot(2)
	b := verifiedBlock(t, 2, [32]byte{'b'}, a.Block.Root())
	require.NoError(t, h.service.ImportBlock(ctx, b, ImportBlockOpts{}))
	require.Equal(t, 1, len(reprocess.calls))
	assert.Equal(t, reprocessCall{slot: 1, root: a.Block.Root(), advancedSlot: 1}, reprocess.calls[0])

	h.service.deferred.Drain()
	require.Equal(t, 2, len(reprocess.calls))
	assert.Equal(t, b.Block.Root(), reprocess.calls[1].root)
}

func TestImportBlock_ReprocessAdvancedSlot(t *testing.T) {
	ctx := context.Background()
	reprocess := &mockReprocess{}
	h := setupService(t, WithReprocessController(reprocess))
	// One second before the next slot starts.
	h.now = h.genesis.Add(2*params.BeaconConfig().SlotDuration() - time.Second)

	vb := verifiedBlock(t, 1, [32]byte{'a'}, genesisRoot)
	require.NoError(t, h.service.ImportBlock(ctx, vb, ImportBlockOpts{}))
	h.service.deferred.Drain()
	require.Equal(t, 1, len(reprocess.calls))
	assert.Equal(t, primitives.Slot(2), reprocess.calls[0].advancedSlot)
}

func TestImportBlock_LightClientUpdate(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	cfg := params.BeaconConfig().Copy()
	cfg.AltairForkEpoch = 0
	params.OverrideBeaconConfig(cfg)
	ctx := context.Background()

	t.Run("enabled", func(t *testing.T) {
		resetCfg := features.InitWithReset(&features.Flags{EnableLightClient: true})
		defer resetCfg()
		lc := &mockLightClient{}
		h := setupService(t, WithLightClientServer(lc))
		h.setSlot(2)

		vb := verifiedBlock(t, 2, [32]byte{'a'}, genesisRoot)
		vb.ParentBlockSlot = 0
		require.NoError(t, h.service.ImportBlock(ctx, vb, ImportBlockOpts{}))
		assert.Equal(t, 0, len(lc.parentSlots))
		h.service.deferred.Drain()
		require.DeepEqual(t, []primitives.Slot{0}, lc.parentSlots)

		// No head change, no update.
		sibling := verifiedBlock(t, 1, [32]byte{0x01}, genesisRoot)
		require.NoError(t, h.service.ImportBlock(ctx, sibling, ImportBlockOpts{}))
		h.service.deferred.Drain()
		assert.Equal(t, 1, len(lc.parentSlots))
	})
	t.Run("disabled", func(t *testing.T) {
		lc := &mockLightClient{}
		h := setupService(t, WithLightClientServer(lc))
		h.setSlot(2)
		require.NoError(t, h.service.ImportBlock(ctx, verifiedBlock(t, 2, [32]byte{'a'}, genesisRoot), ImportBlockOpts{}))
		h.service.deferred.Drain()
		assert.Equal(t, 0, len(lc.parentSlots))
	})
}

// slowCheckpointStateGen delays checkpoint caching and records when it is done.
type slowCheckpointStateGen struct {
	stategen.StateManager
	cached uint32
}

func (s *slowCheckpointStateGen) AddCheckpointState(cp *blocks.Checkpoint, st state.BeaconState) error {
	time.Sleep(200 * time.Millisecond)
	defer atomic.StoreUint32(&s.cached, 1)
	return s.StateManager.AddCheckpointState(cp, st)
}

// orderedLightClient reports whether checkpoint caching had finished when it ran.
type orderedLightClient struct {
	stateGen *slowCheckpointStateGen
	ran      chan bool
}

func (l *orderedLightClient) OnImportBlockHead(_ blocks.ROBlock, _ state.BeaconState, _ primitives.Slot) error {
	l.ran <- atomic.LoadUint32(&l.stateGen.cached) == 1
	return nil
}

func TestImportBlock_StartedQueueRunsAfterCriticalPath(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	cfg := params.BeaconConfig().Copy()
	cfg.AltairForkEpoch = 0
	params.OverrideBeaconConfig(cfg)
	resetCfg := features.InitWithReset(&features.Flags{EnableLightClient: true})
	defer resetCfg()

	h := setupService(t)
	sg := &slowCheckpointStateGen{StateManager: h.service.cfg.StateGen}
	lc := &orderedLightClient{stateGen: sg, ran: make(chan bool, 1)}
	h.service.cfg.StateGen = sg
	h.service.cfg.LightClientServer = lc
	h.service.Start()

	epochStart := params.BeaconConfig().SlotsPerEpoch
	h.setSlot(epochStart)
	vb := verifiedBlock(t, epochStart, [32]byte{'a'}, genesisRoot)
	require.NoError(t, h.service.ImportBlock(context.Background(), vb, ImportBlockOpts{}))

	select {
	case cached := <-lc.ran:
		assert.Equal(t, true, cached, "Light client update ran before checkpoint caching finished")
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for the light client update")
	}
}
