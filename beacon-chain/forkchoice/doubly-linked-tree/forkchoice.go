// Package doublylinkedtree is an in-memory fork choice store keeping every block
// since the finalized checkpoint as a node linked to its parent and children.
// Head selection follows the heaviest subtree from the justified node, with
// ties broken by the lexicographically larger root.
package doublylinkedtree

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/forkchoice"
	forkchoicetypes "github.com/prysmaticlabs/beacon-ingest/beacon-chain/forkchoice/types"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-ingest/config/params"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/blocks"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-ingest/time/slots"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

type vote struct {
	root  [32]byte
	epoch primitives.Epoch
}

// ForkChoice defines the overall fork choice store which includes all block nodes, validator's latest votes and balances.
type ForkChoice struct {
	store   *Store
	votes   map[primitives.ValidatorIndex]vote
	slashed map[primitives.ValidatorIndex]bool
	lock    sync.RWMutex
}

// Store defines the fork choice store which includes block nodes and the last view of checkpoint information.
type Store struct {
	justifiedCheckpoint *forkchoicetypes.Checkpoint
	finalizedCheckpoint *forkchoicetypes.Checkpoint
	nodeByRoot          map[[32]byte]*Node
	treeRootNode        *Node
	headNode            *Node
	currentSlot         primitives.Slot
}

var _ forkchoice.ForkChoicer = (*ForkChoice)(nil)

// New initializes a new fork choice store anchored at the given block, which
// becomes both the justified and the finalized checkpoint.
func New(anchor *forkchoicetypes.ProtoBlock) (*ForkChoice, error) {
	if anchor == nil {
		return nil, errNilAnchor
	}
	node := &Node{
		slot:                   anchor.Slot,
		root:                   anchor.BlockRoot,
		stateRoot:              anchor.StateRoot,
		targetRoot:             anchor.BlockRoot,
		justifiedEpoch:         anchor.JustifiedEpoch,
		justifiedRoot:          anchor.JustifiedRoot,
		finalizedEpoch:         anchor.FinalizedEpoch,
		finalizedRoot:          anchor.FinalizedRoot,
		payloadHash:            anchor.ExecutionPayloadBlockHash,
		executionStatus:        anchor.ExecutionStatus,
		dataAvailabilityStatus: anchor.DataAvailabilityStatus,
	}
	cp := &forkchoicetypes.Checkpoint{Epoch: slots.ToEpoch(anchor.Slot), Root: anchor.BlockRoot}
	s := &Store{
		justifiedCheckpoint: cp,
		finalizedCheckpoint: &forkchoicetypes.Checkpoint{Epoch: cp.Epoch, Root: cp.Root},
		nodeByRoot:          map[[32]byte]*Node{anchor.BlockRoot: node},
		treeRootNode:        node,
		headNode:            node,
		currentSlot:         anchor.Slot,
	}
	nodeCount.Set(1)
	return &ForkChoice{
		store:   s,
		votes:   make(map[primitives.ValidatorIndex]vote),
		slashed: make(map[primitives.ValidatorIndex]bool),
	}, nil
}

// OnBlock inserts a block into the store and updates the store checkpoints from the post-state.
func (f *ForkChoice) OnBlock(
	ctx context.Context,
	blk blocks.ROBlock,
	st state.ReadOnlyBeaconState,
	blockDelaySec uint64,
	currentSlot primitives.Slot,
	executionStatus forkchoicetypes.ExecutionStatus,
	daStatus forkchoicetypes.DataAvailabilityStatus,
) (*forkchoicetypes.ProtoBlock, error) {
	_, span := trace.StartSpan(ctx, "doublyLinkedForkchoice.OnBlock")
	defer span.End()

	if blk.IsNil() {
		return nil, forkchoice.NewError(forkchoice.InvalidBlock, "nil block")
	}
	if st == nil {
		return nil, forkchoice.NewError(forkchoice.InvalidBlock, "nil post state")
	}

	f.lock.Lock()
	defer f.lock.Unlock()

	if currentSlot > f.store.currentSlot {
		f.store.currentSlot = currentSlot
	}
	root := blk.Root()
	if n, ok := f.store.nodeByRoot[root]; ok {
		return n.protoBlock(), nil
	}
	parent, ok := f.store.nodeByRoot[blk.ParentRoot()]
	if !ok {
		return nil, forkchoice.NewError(forkchoice.UnknownParent, "parent %#x of block %#x", blk.ParentRoot(), root)
	}
	if blk.Slot() <= parent.slot {
		return nil, forkchoice.NewError(forkchoice.InvalidBlock, "block slot %d not after parent slot %d", blk.Slot(), parent.slot)
	}
	if blk.Slot() > f.store.currentSlot {
		return nil, forkchoice.NewError(forkchoice.InvalidBlock, "block slot %d is in the future, current slot %d", blk.Slot(), f.store.currentSlot)
	}
	if fNode, ok := f.store.nodeByRoot[f.store.finalizedCheckpoint.Root]; ok && parent.ancestorAtSlot(fNode.slot) != fNode {
		return nil, forkchoice.NewError(forkchoice.InvalidBlock, "block %#x does not descend from the finalized root", root)
	}

	justified := st.CurrentJustifiedCheckpoint()
	finalized := st.FinalizedCheckpoint()
	n := &Node{
		slot:                   blk.Slot(),
		root:                   root,
		stateRoot:              blk.Block.StateRoot,
		parent:                 parent,
		justifiedEpoch:         justified.Epoch,
		justifiedRoot:          justified.Root,
		finalizedEpoch:         finalized.Epoch,
		finalizedRoot:          finalized.Root,
		payloadHash:            blk.Block.ExecutionBlockHash(),
		executionStatus:        executionStatus,
		dataAvailabilityStatus: daStatus,
	}
	epochStart, err := slots.EpochStart(slots.ToEpoch(n.slot))
	if err != nil {
		return nil, err
	}
	if n.slot == epochStart {
		n.targetRoot = root
	} else if anc := parent.ancestorAtSlot(epochStart); anc != nil {
		n.targetRoot = anc.root
	}
	parent.children = append(parent.children, n)
	f.store.nodeByRoot[root] = n

	if justified.Epoch > f.store.justifiedCheckpoint.Epoch {
		f.store.justifiedCheckpoint = &forkchoicetypes.Checkpoint{Epoch: justified.Epoch, Root: justified.Root}
	}
	if finalized.Epoch > f.store.finalizedCheckpoint.Epoch {
		f.store.finalizedCheckpoint = &forkchoicetypes.Checkpoint{Epoch: finalized.Epoch, Root: finalized.Root}
	}

	processedBlockCount.Inc()
	nodeCount.Set(float64(len(f.store.nodeByRoot)))
	log.WithFields(logrus.Fields{
		"slot":          n.slot,
		"root":          fmt.Sprintf("%#x", root[:8]),
		"blockDelaySec": blockDelaySec,
	}).Trace("Inserted block into fork choice")
	return n.protoBlock(), nil
}

// OnAttestation records the latest target-epoch vote of every attesting index.
// Without force, attestations outside the current and previous epoch are rejected.
func (f *ForkChoice) OnAttestation(ctx context.Context, att *blocks.IndexedAttestation, dataRoot [32]byte, force bool) error {
	_, span := trace.StartSpan(ctx, "doublyLinkedForkchoice.OnAttestation")
	defer span.End()

	if att == nil || len(att.AttestingIndices) == 0 {
		return forkchoice.NewAttestationError(forkchoice.EmptyAggregationBitfield, "data root %#x", dataRoot)
	}
	data := att.Data
	if data == nil || data.Target == nil {
		return forkchoice.NewAttestationError(forkchoice.BadTargetEpoch, "missing target, data root %#x", dataRoot)
	}
	target := data.Target

	f.lock.Lock()
	defer f.lock.Unlock()

	currentEpoch := slots.ToEpoch(f.store.currentSlot)
	if !force {
		if target.Epoch > currentEpoch {
			return forkchoice.NewAttestationError(forkchoice.FutureEpoch, "target epoch %d, current epoch %d", target.Epoch, currentEpoch)
		}
		if target.Epoch+1 < currentEpoch {
			return forkchoice.NewAttestationError(forkchoice.PastEpoch, "target epoch %d, current epoch %d", target.Epoch, currentEpoch)
		}
	}
	if target.Epoch != slots.ToEpoch(data.Slot) {
		return forkchoice.NewAttestationError(forkchoice.BadTargetEpoch, "target epoch %d, attestation slot %d", target.Epoch, data.Slot)
	}
	if _, ok := f.store.nodeByRoot[target.Root]; !ok {
		return forkchoice.NewAttestationError(forkchoice.UnknownTargetRoot, "target root %#x", target.Root)
	}
	head, ok := f.store.nodeByRoot[data.BeaconBlockRoot]
	if !ok {
		return forkchoice.NewAttestationError(forkchoice.UnknownHeadBlock, "beacon block root %#x", data.BeaconBlockRoot)
	}
	if head.slot > data.Slot {
		return forkchoice.NewAttestationError(forkchoice.AttestsToFutureBlock, "block slot %d, attestation slot %d", head.slot, data.Slot)
	}
	expectedTarget := head.targetRoot
	if slots.ToEpoch(head.slot) < target.Epoch {
		expectedTarget = head.root
	}
	if expectedTarget != target.Root {
		return forkchoice.NewAttestationError(forkchoice.InvalidTarget, "target root %#x, expected %#x", target.Root, expectedTarget)
	}
	if data.Slot > f.store.currentSlot {
		return forkchoice.NewAttestationError(forkchoice.FutureSlot, "attestation slot %d, current slot %d", data.Slot, f.store.currentSlot)
	}

	for _, idx := range att.AttestingIndices {
		if v, ok := f.votes[idx]; ok && v.epoch >= target.Epoch {
			continue
		}
		f.votes[idx] = vote{root: data.BeaconBlockRoot, epoch: target.Epoch}
	}
	processedAttestationCount.Inc()
	return nil
}

// OnAttesterSlashing discards the votes of every validator included in both attestations.
func (f *ForkChoice) OnAttesterSlashing(slashing *blocks.AttesterSlashing) error {
	if slashing == nil || slashing.Attestation1 == nil || slashing.Attestation2 == nil {
		return forkchoice.NewError(forkchoice.InvalidAttesterSlashing, "nil attestation")
	}
	first := make(map[primitives.ValidatorIndex]bool, len(slashing.Attestation1.AttestingIndices))
	for _, idx := range slashing.Attestation1.AttestingIndices {
		first[idx] = true
	}
	f.lock.Lock()
	defer f.lock.Unlock()
	for _, idx := range slashing.Attestation2.AttestingIndices {
		if first[idx] {
			f.slashed[idx] = true
		}
	}
	return nil
}

// Head returns the head computed by the last call to UpdateHead.
func (f *ForkChoice) Head() *forkchoicetypes.ProtoBlock {
	f.lock.RLock()
	defer f.lock.RUnlock()
	calledHeadCount.Inc()
	return f.store.headNode.protoBlock()
}

// UpdateHead recomputes node weights from the latest votes and walks from the
// justified node to the heaviest leaf.
func (f *ForkChoice) UpdateHead(ctx context.Context) (*forkchoicetypes.ProtoBlock, error) {
	_, span := trace.StartSpan(ctx, "doublyLinkedForkchoice.UpdateHead")
	defer span.End()

	f.lock.Lock()
	defer f.lock.Unlock()

	f.prune()
	f.applyWeights()

	justifiedNode, ok := f.store.nodeByRoot[f.store.justifiedCheckpoint.Root]
	if !ok {
		if f.store.justifiedCheckpoint.Root != params.BeaconConfig().ZeroHash {
			return nil, errors.Wrapf(errUnknownJustifiedRoot, "%#x", f.store.justifiedCheckpoint.Root)
		}
		justifiedNode = f.store.treeRootNode
	}

	head := justifiedNode
	for len(head.children) > 0 {
		var best *Node
		for _, child := range head.children {
			if !child.viable() {
				continue
			}
			if best == nil || child.weight > best.weight ||
				(child.weight == best.weight && bytes.Compare(child.root[:], best.root[:]) > 0) {
				best = child
			}
		}
		if best == nil {
			break
		}
		head = best
	}

	if head != f.store.headNode {
		headChangesCount.Inc()
		headSlotNumber.Set(float64(head.slot))
		f.store.headNode = head
	}
	return head.protoBlock(), nil
}

// applyWeights sets every node's weight to the number of unslashed votes in its subtree.
func (f *ForkChoice) applyWeights() {
	for _, n := range f.store.nodeByRoot {
		n.weight = 0
	}
	for idx, v := range f.votes {
		if f.slashed[idx] {
			continue
		}
		for n := f.store.nodeByRoot[v.root]; n != nil; n = n.parent {
			n.weight++
		}
	}
}

// prune removes every node that does not descend from the finalized root.
func (f *ForkChoice) prune() {
	finalizedNode, ok := f.store.nodeByRoot[f.store.finalizedCheckpoint.Root]
	if !ok || finalizedNode == f.store.treeRootNode {
		return
	}
	keep := make(map[[32]byte]*Node)
	var walk func(n *Node)
	walk = func(n *Node) {
		keep[n.root] = n
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(finalizedNode)
	finalizedNode.parent = nil
	f.store.nodeByRoot = keep
	f.store.treeRootNode = finalizedNode
	if _, ok := keep[f.store.headNode.root]; !ok {
		f.store.headNode = finalizedNode
	}
	prunedCount.Inc()
	nodeCount.Set(float64(len(keep)))
}
