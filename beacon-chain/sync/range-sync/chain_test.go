package rangesync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/libp2p/go-libp2p-core/peer"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/blockchain"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/blocks"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-ingest/testing/assert"
	"github.com/prysmaticlabs/beacon-ingest/testing/require"
	"github.com/prysmaticlabs/beacon-ingest/testing/util"
	logTest "github.com/sirupsen/logrus/hooks/test"
)

var genesisRoot = [32]byte{'g'}

type mockFetcher struct {
	t      *testing.T
	lock   sync.Mutex
	chain  []blocks.ROBlock
	calls  map[primitives.Slot][]peer.ID
	fail   func(pid peer.ID, attempt int) error
	shifts map[peer.ID]bool
}

func newMockFetcher(t *testing.T, chain []blocks.ROBlock) *mockFetcher {
	return &mockFetcher{t: t, chain: chain, calls: make(map[primitives.Slot][]peer.ID), shifts: make(map[peer.ID]bool)}
}

func (f *mockFetcher) BlocksByRange(_ context.Context, pid peer.ID, req BlocksByRangeRequest) ([]blocks.ROBlock, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.calls[req.StartSlot] = append(f.calls[req.StartSlot], pid)
	if f.fail != nil {
		if err := f.fail(pid, len(f.calls[req.StartSlot])); err != nil {
			return nil, err
		}
	}
	end := req.StartSlot.Add(req.Count)
	var blks []blocks.ROBlock
	for _, b := range f.chain {
		if b.Slot() >= req.StartSlot && b.Slot() < end {
			blks = append(blks, b)
		}
	}
	if f.shifts[pid] {
		blks = append(blks, util.NewROBlock(f.t, end, [32]byte{}))
	}
	return blks, nil
}

func (f *mockFetcher) callsFor(slot primitives.Slot) []peer.ID {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.calls[slot]
}

type mockProcessor struct {
	imported map[[32]byte]bool
	segments [][]blocks.ROBlock
	opts     []blockchain.ImportBlockOpts
	fail     func(call int, blks []blocks.ROBlock) error
}

func newMockProcessor() *mockProcessor {
	return &mockProcessor{imported: map[[32]byte]bool{genesisRoot: true}}
}

func (p *mockProcessor) ImportBlocks(_ context.Context, blks []blocks.ROBlock, opts blockchain.ImportBlockOpts) error {
	p.segments = append(p.segments, blks)
	p.opts = append(p.opts, opts)
	if p.fail != nil {
		if err := p.fail(len(p.segments), blks); err != nil {
			return err
		}
	}
	for _, b := range blks {
		if !p.imported[b.ParentRoot()] {
			return errors.New("unknown parent")
		}
		p.imported[b.Root()] = true
	}
	return nil
}

func (p *mockProcessor) hasChain(chain []blocks.ROBlock) bool {
	for _, b := range chain {
		if !p.imported[b.Root()] {
			return false
		}
	}
	return true
}

func syncChain(t *testing.T, cfg *ChainConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	c, err := NewSyncChain(cfg)
	require.NoError(t, err)
	return c.Sync(ctx)
}

func TestNewSyncChain_MissingCollaborators(t *testing.T) {
	_, err := NewSyncChain(&ChainConfig{Processor: newMockProcessor()})
	require.ErrorIs(t, err, errNilFetcher)
	_, err = NewSyncChain(&ChainConfig{Fetcher: newMockFetcher(t, nil)})
	require.ErrorIs(t, err, errNilProcessor)
}

func TestSyncChain_ImportsBatchesInOrder(t *testing.T) {
	chain := util.NewChain(t, genesisRoot, 1, 200)
	fetcher := newMockFetcher(t, chain)
	processor := newMockProcessor()
	require.NoError(t, syncChain(t, &ChainConfig{
		TargetSlot: 200,
		Peers:      []peer.ID{peerA, peerB},
		Fetcher:    fetcher,
		Processor:  processor,
	}))

	firstSlots := []primitives.Slot{1, 64, 128, 192}
	require.Equal(t, len(firstSlots), len(processor.segments))
	for i, segment := range processor.segments {
		assert.Equal(t, firstSlots[i], segment[0].Slot())
		assert.Equal(t, blockchain.ImportAttestationsSkip, processor.opts[i].ImportAttestations)
	}
	assert.Equal(t, true, processor.hasChain(chain))
}

func TestSyncChain_HeadSyncImportsAttestations(t *testing.T) {
	chain := util.NewChain(t, genesisRoot, 1, 70)
	processor := newMockProcessor()
	require.NoError(t, syncChain(t, &ChainConfig{
		TargetSlot: 70,
		Peers:      []peer.ID{peerA},
		SyncType:   Head,
		Fetcher:    newMockFetcher(t, chain),
		Processor:  processor,
	}))
	require.Equal(t, 2, len(processor.opts))
	for _, opts := range processor.opts {
		assert.Equal(t, blockchain.ImportAttestationsDefault, opts.ImportAttestations)
	}
}

func TestSyncChain_StartEpoch(t *testing.T) {
	chain := util.NewChain(t, genesisRoot, 1, 200)
	processor := newMockProcessor()
	for _, b := range chain[:127] {
		processor.imported[b.Root()] = true
	}
	fetcher := newMockFetcher(t, chain)
	require.NoError(t, syncChain(t, &ChainConfig{
		StartEpoch: 4,
		TargetSlot: 200,
		Peers:      []peer.ID{peerA},
		Fetcher:    fetcher,
		Processor:  processor,
	}))
	require.Equal(t, 2, len(processor.segments))
	assert.Equal(t, primitives.Slot(128), processor.segments[0][0].Slot())
	assert.Equal(t, 0, len(fetcher.callsFor(0)))
}

func TestSyncChain_EmptyBatch(t *testing.T) {
	var skip []primitives.Slot
	for s := primitives.Slot(64); s < 128; s++ {
		skip = append(skip, s)
	}
	chain := util.NewChain(t, genesisRoot, 1, 200, skip...)
	processor := newMockProcessor()
	require.NoError(t, syncChain(t, &ChainConfig{
		TargetSlot: 200,
		Peers:      []peer.ID{peerA},
		Fetcher:    newMockFetcher(t, chain),
		Processor:  processor,
	}))
	assert.Equal(t, 3, len(processor.segments))
	assert.Equal(t, true, processor.hasChain(chain))
}

func TestSyncChain_RetriesWithOtherPeer(t *testing.T) {
	chain := util.NewChain(t, genesisRoot, 1, 200)
	fetcher := newMockFetcher(t, chain)
	fetcher.fail = func(pid peer.ID, _ int) error {
		if pid == peerA {
			return errors.New("stream reset")
		}
		return nil
	}
	processor := newMockProcessor()
	require.NoError(t, syncChain(t, &ChainConfig{
		TargetSlot: 200,
		Peers:      []peer.ID{peerA, peerB},
		Fetcher:    fetcher,
		Processor:  processor,
	}))
	assert.Equal(t, true, processor.hasChain(chain))
	require.DeepEqual(t, []peer.ID{peerA, peerB}, fetcher.callsFor(0))
}

func TestSyncChain_RejectsBlocksOutsideRequest(t *testing.T) {
	chain := util.NewChain(t, genesisRoot, 1, 100)
	fetcher := newMockFetcher(t, chain)
	fetcher.shifts[peerA] = true
	processor := newMockProcessor()
	require.NoError(t, syncChain(t, &ChainConfig{
		TargetSlot: 100,
		Peers:      []peer.ID{peerA, peerB},
		Fetcher:    fetcher,
		Processor:  processor,
	}))
	assert.Equal(t, true, processor.hasChain(chain))
	for _, segment := range processor.segments {
		for _, b := range segment {
			assert.Equal(t, true, b.Slot() <= 100)
		}
	}
}

func TestSyncChain_ProcessingFailureRedownloadsUnvalidated(t *testing.T) {
	chain := util.NewChain(t, genesisRoot, 1, 200)
	fetcher := newMockFetcher(t, chain)
	processor := newMockProcessor()
	processor.fail = func(call int, _ []blocks.ROBlock) error {
		if call == 2 {
			return errors.New("invalid state root")
		}
		return nil
	}
	require.NoError(t, syncChain(t, &ChainConfig{
		TargetSlot: 200,
		Peers:      []peer.ID{peerA, peerB},
		Fetcher:    fetcher,
		Processor:  processor,
	}))
	assert.Equal(t, true, processor.hasChain(chain))
	require.Equal(t, 6, len(processor.segments))
	// Batch 0 was imported but not validated when batch 2 failed.
	assert.Equal(t, primitives.Slot(1), processor.segments[2][0].Slot())
	assert.Equal(t, 2, len(fetcher.callsFor(0)))
	assert.Equal(t, 2, len(fetcher.callsFor(64)))
	assert.Equal(t, 1, len(fetcher.callsFor(128)))
}

func TestSyncChain_AbandonsAfterMaxDownloadAttempts(t *testing.T) {
	hook := logTest.NewGlobal()
	fetcher := newMockFetcher(t, util.NewChain(t, genesisRoot, 1, 100))
	fetcher.fail = func(peer.ID, int) error {
		return errors.New("timeout")
	}
	err := syncChain(t, &ChainConfig{
		TargetSlot: 100,
		Peers:      []peer.ID{peerA},
		Fetcher:    fetcher,
		Processor:  newMockProcessor(),
	})
	assert.Equal(t, true, IsBatchError(err, MaxDownloadAttempts), "got %v", err)
	require.LogsContain(t, hook, "Abandoning range sync chain")
}

func TestSyncChain_AbandonsAfterMaxProcessingAttempts(t *testing.T) {
	processor := newMockProcessor()
	processor.fail = func(int, []blocks.ROBlock) error {
		return errors.New("invalid signature")
	}
	err := syncChain(t, &ChainConfig{
		TargetSlot: 100,
		Peers:      []peer.ID{peerA},
		Fetcher:    newMockFetcher(t, util.NewChain(t, genesisRoot, 1, 100)),
		Processor:  processor,
	})
	assert.Equal(t, true, IsBatchError(err, MaxProcessingAttempts), "got %v", err)
	assert.Equal(t, 4, len(processor.segments))
}

func TestSyncChain_NoPeers(t *testing.T) {
	err := syncChain(t, &ChainConfig{
		TargetSlot: 100,
		Fetcher:    newMockFetcher(t, nil),
		Processor:  newMockProcessor(),
	})
	require.ErrorIs(t, err, errNoPeers)
}

func TestSyncChain_ContextCanceled(t *testing.T) {
	c, err := NewSyncChain(&ChainConfig{
		TargetSlot: 100,
		Peers:      []peer.ID{peerA},
		Fetcher:    newMockFetcher(t, nil),
		Processor:  newMockProcessor(),
	})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, c.Sync(ctx), context.Canceled)
}

func TestSyncChain_LogProgress(t *testing.T) {
	hook := logTest.NewGlobal()
	c, err := NewSyncChain(&ChainConfig{
		TargetSlot: 100,
		Fetcher:    newMockFetcher(t, nil),
		Processor:  newMockProcessor(),
	})
	require.NoError(t, err)
	c.started = time.Now().Add(-time.Minute)
	c.importedBlocks = 1200
	c.logProgress()
	require.LogsContain(t, hook, "Range sync progress")
	entry := hook.LastEntry()
	assert.Equal(t, "1,200", entry.Data["blocks"])
	assert.Equal(t, "20.00", entry.Data["blocksPerSecond"])
}

func TestCheckResponseRange(t *testing.T) {
	req := BlocksByRangeRequest{StartSlot: 64, Count: 64, Step: 1}
	tests := []struct {
		name  string
		slots []primitives.Slot
		valid bool
	}{
		{name: "empty", valid: true},
		{name: "in range", slots: []primitives.Slot{64, 70, 127}, valid: true},
		{name: "before start", slots: []primitives.Slot{63, 64}},
		{name: "past end", slots: []primitives.Slot{64, 128}},
		{name: "not ascending", slots: []primitives.Slot{70, 65}},
		{name: "duplicate", slots: []primitives.Slot{70, 70}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blks := make([]blocks.ROBlock, len(tt.slots))
			for i, s := range tt.slots {
				blks[i] = util.NewROBlock(t, s, [32]byte{})
			}
			err := checkResponseRange(req, blks)
			if tt.valid {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, errUnexpectedRange)
		})
	}
}
