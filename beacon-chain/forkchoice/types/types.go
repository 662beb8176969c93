// Package types defines the values exchanged with the fork choice store.
package types

import (
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
)

// Checkpoint is an array version of ethpb.Checkpoint. It is used internally in
// forkchoice, while the slice version is used in the interface to legacy code
// in other packages
type Checkpoint struct {
	Epoch primitives.Epoch
	Root  [32]byte
}

// ExecutionStatus of a block's execution payload as known to fork choice.
type ExecutionStatus int

const (
	// PreMerge blocks carry no execution payload.
	PreMerge ExecutionStatus = iota
	// Valid payloads were fully verified by the execution engine.
	Valid
	// Syncing payloads were imported optimistically.
	Syncing
	// Invalid payloads were rejected by the execution engine.
	Invalid
)

func (s ExecutionStatus) String() string {
	switch s {
	case PreMerge:
		return "pre_merge"
	case Valid:
		return "valid"
	case Syncing:
		return "syncing"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// DataAvailabilityStatus of a block's blob data.
type DataAvailabilityStatus int

const (
	// PreData blocks predate blob data.
	PreData DataAvailabilityStatus = iota
	// OutOfRange blocks are older than the data availability window.
	OutOfRange
	// Available blocks had all of their blob data confirmed.
	Available
)

func (s DataAvailabilityStatus) String() string {
	switch s {
	case PreData:
		return "pre_data"
	case OutOfRange:
		return "out_of_range"
	case Available:
		return "available"
	default:
		return "unknown"
	}
}

// ProtoBlock is the summary fork choice keeps for every known block.
type ProtoBlock struct {
	Slot                      primitives.Slot
	BlockRoot                 [32]byte
	ParentRoot                [32]byte
	StateRoot                 [32]byte
	TargetRoot                [32]byte
	JustifiedEpoch            primitives.Epoch
	JustifiedRoot             [32]byte
	FinalizedEpoch            primitives.Epoch
	FinalizedRoot             [32]byte
	ExecutionPayloadBlockHash [32]byte
	ExecutionStatus           ExecutionStatus
	DataAvailabilityStatus    DataAvailabilityStatus
}

// IsOptimistic returns true when the block's payload has not been fully verified.
func (b *ProtoBlock) IsOptimistic() bool {
	return b != nil && b.ExecutionStatus == Syncing
}

// AncestorStatus classifies the relation between two fork choice nodes.
type AncestorStatus int

const (
	// CommonAncestor means the nodes share an ancestor but neither descends from the other side's head.
	CommonAncestor AncestorStatus = iota
	// Descendant means the new node descends from the previous node.
	Descendant
	// NoCommonAncestor means the nodes are on disjoint trees.
	NoCommonAncestor
	// BlockUnknown means at least one of the nodes is not in the store.
	BlockUnknown
)

func (s AncestorStatus) String() string {
	switch s {
	case CommonAncestor:
		return "common_ancestor"
	case Descendant:
		return "descendant"
	case NoCommonAncestor:
		return "no_common_ancestor"
	case BlockUnknown:
		return "block_unknown"
	default:
		return "unknown"
	}
}

// AncestorResult is the result of a common ancestor query. Depth is only set
// for CommonAncestor and counts slots from the previous node back to the ancestor.
type AncestorResult struct {
	Code  AncestorStatus
	Depth uint64
}

// EpochDifference selects the epoch of a dependent root relative to a block's epoch.
type EpochDifference uint64

const (
	// EpochCurrent selects the dependent root of the block's own epoch.
	EpochCurrent EpochDifference = 0
	// EpochPrevious selects the dependent root of the epoch before the block's epoch.
	EpochPrevious EpochDifference = 1
)
