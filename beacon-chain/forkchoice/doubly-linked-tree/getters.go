package doublylinkedtree

import (
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/forkchoice"
	forkchoicetypes "github.com/prysmaticlabs/beacon-ingest/beacon-chain/forkchoice/types"
	"github.com/prysmaticlabs/beacon-ingest/config/params"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
)

// HasNode returns true if the node exists in fork choice store,
// false else wise.
func (f *ForkChoice) HasNode(root [32]byte) bool {
	f.lock.RLock()
	defer f.lock.RUnlock()
	_, ok := f.store.nodeByRoot[root]
	return ok
}

// Block returns the summary of a known block, or nil.
func (f *ForkChoice) Block(root [32]byte) *forkchoicetypes.ProtoBlock {
	f.lock.RLock()
	defer f.lock.RUnlock()
	return f.store.nodeByRoot[root].protoBlock()
}

// NodeCount returns the current number of nodes in the Store.
func (f *ForkChoice) NodeCount() int {
	f.lock.RLock()
	defer f.lock.RUnlock()
	return len(f.store.nodeByRoot)
}

// FinalizedCheckpoint of fork choice store.
func (f *ForkChoice) FinalizedCheckpoint() *forkchoicetypes.Checkpoint {
	f.lock.RLock()
	defer f.lock.RUnlock()
	cp := *f.store.finalizedCheckpoint
	return &cp
}

// JustifiedCheckpoint of fork choice store.
func (f *ForkChoice) JustifiedCheckpoint() *forkchoicetypes.Checkpoint {
	f.lock.RLock()
	defer f.lock.RUnlock()
	cp := *f.store.justifiedCheckpoint
	return &cp
}

// JustifiedBlock returns the block of the justified checkpoint, or nil if it is unknown.
func (f *ForkChoice) JustifiedBlock() *forkchoicetypes.ProtoBlock {
	f.lock.RLock()
	defer f.lock.RUnlock()
	return f.store.nodeByRoot[f.store.justifiedCheckpoint.Root].protoBlock()
}

// FinalizedBlock returns the block of the finalized checkpoint, or nil if it is unknown.
func (f *ForkChoice) FinalizedBlock() *forkchoicetypes.ProtoBlock {
	f.lock.RLock()
	defer f.lock.RUnlock()
	return f.store.nodeByRoot[f.store.finalizedCheckpoint.Root].protoBlock()
}

// DependentRoot returns the root of the last block before the start of the
// block's epoch minus diff epochs. Close to the tree root the tree root is returned.
func (f *ForkChoice) DependentRoot(blk *forkchoicetypes.ProtoBlock, diff forkchoicetypes.EpochDifference) ([32]byte, error) {
	if blk == nil {
		return [32]byte{}, ErrNilNode
	}
	f.lock.RLock()
	defer f.lock.RUnlock()

	node, ok := f.store.nodeByRoot[blk.BlockRoot]
	if !ok {
		return [32]byte{}, forkchoice.NewError(forkchoice.UnknownBlock, "block %#x", blk.BlockRoot)
	}
	spe := params.BeaconConfig().SlotsPerEpoch
	epochStart := node.slot - node.slot%spe
	diffSlots := primitives.Slot(uint64(diff) * uint64(spe))
	if epochStart <= diffSlots {
		return f.store.treeRootNode.root, nil
	}
	beforeSlot := epochStart - diffSlots
	for n := node; n != nil; n = n.parent {
		if n.slot < beforeSlot {
			return n.root, nil
		}
	}
	return f.store.treeRootNode.root, nil
}

// CommonAncestorDepth classifies next against prev. A CommonAncestor result
// means next does not descend from prev, and carries the slot distance from
// prev back to the shared ancestor.
func (f *ForkChoice) CommonAncestorDepth(prev, next *forkchoicetypes.ProtoBlock) forkchoicetypes.AncestorResult {
	if prev == nil || next == nil {
		return forkchoicetypes.AncestorResult{Code: forkchoicetypes.BlockUnknown}
	}
	f.lock.RLock()
	defer f.lock.RUnlock()

	prevNode, ok := f.store.nodeByRoot[prev.BlockRoot]
	if !ok {
		return forkchoicetypes.AncestorResult{Code: forkchoicetypes.BlockUnknown}
	}
	nextNode, ok := f.store.nodeByRoot[next.BlockRoot]
	if !ok {
		return forkchoicetypes.AncestorResult{Code: forkchoicetypes.BlockUnknown}
	}

	a, b := prevNode, nextNode
	for a != b {
		if a == nil || b == nil {
			return forkchoicetypes.AncestorResult{Code: forkchoicetypes.NoCommonAncestor}
		}
		switch {
		case a.slot > b.slot:
			a = a.parent
		case b.slot > a.slot:
			b = b.parent
		default:
			a, b = a.parent, b.parent
		}
	}
	if a == prevNode {
		return forkchoicetypes.AncestorResult{Code: forkchoicetypes.Descendant}
	}
	return forkchoicetypes.AncestorResult{
		Code:  forkchoicetypes.CommonAncestor,
		Depth: uint64(prevNode.slot - a.slot),
	}
}
