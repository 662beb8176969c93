package doublylinkedtree

import (
	forkchoicetypes "github.com/prysmaticlabs/beacon-ingest/beacon-chain/forkchoice/types"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
)

// Node defines the individual block which includes its block parent, ancestor and how much weight accounted for it.
// This is used as an array based stateful DAG for efficient fork choice look up.
type Node struct {
	slot                   primitives.Slot                        // slot of the block converted to the node.
	root                   [32]byte                               // root of the block converted to the node.
	stateRoot              [32]byte                               // state root of the block.
	targetRoot             [32]byte                               // root of the epoch boundary block of the node's epoch.
	parent                 *Node                                  // parent of this node.
	children               []*Node                                // the list of direct children of this Node
	justifiedEpoch         primitives.Epoch                       // justifiedEpoch of this node.
	justifiedRoot          [32]byte                               // justified root of this node.
	finalizedEpoch         primitives.Epoch                       // finalizedEpoch of this node.
	finalizedRoot          [32]byte                               // finalized root of this node.
	payloadHash            [32]byte                               // execution payload block hash of this node.
	executionStatus        forkchoicetypes.ExecutionStatus
	dataAvailabilityStatus forkchoicetypes.DataAvailabilityStatus
	weight                 uint64                                 // weight of this node: the number of unslashed votes in its subtree.
}

func (n *Node) protoBlock() *forkchoicetypes.ProtoBlock {
	if n == nil {
		return nil
	}
	var parentRoot [32]byte
	if n.parent != nil {
		parentRoot = n.parent.root
	}
	return &forkchoicetypes.ProtoBlock{
		Slot:                      n.slot,
		BlockRoot:                 n.root,
		ParentRoot:                parentRoot,
		StateRoot:                 n.stateRoot,
		TargetRoot:                n.targetRoot,
		JustifiedEpoch:            n.justifiedEpoch,
		JustifiedRoot:             n.justifiedRoot,
		FinalizedEpoch:            n.finalizedEpoch,
		FinalizedRoot:             n.finalizedRoot,
		ExecutionPayloadBlockHash: n.payloadHash,
		ExecutionStatus:           n.executionStatus,
		DataAvailabilityStatus:    n.dataAvailabilityStatus,
	}
}

// ancestorAtSlot returns the latest ancestor of n (n included) with slot <= slot.
func (n *Node) ancestorAtSlot(slot primitives.Slot) *Node {
	node := n
	for node != nil && node.slot > slot {
		node = node.parent
	}
	return node
}

// viable returns false for nodes whose payload was rejected by the execution engine.
func (n *Node) viable() bool {
	return n.executionStatus != forkchoicetypes.Invalid
}
