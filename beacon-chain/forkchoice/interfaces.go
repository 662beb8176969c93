package forkchoice

import (
	"context"

	forkchoicetypes "github.com/prysmaticlabs/beacon-ingest/beacon-chain/forkchoice/types"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/blocks"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
)

// ForkChoicer represents the full fork choice interface composed of all the sub-interfaces.
type ForkChoicer interface {
	HeadRetriever        // to compute head.
	BlockProcessor       // to track new block for fork choice.
	AttestationProcessor // to track new attestation for fork choice.
	Getter               // to retrieve fork choice information.
}

// HeadRetriever retrieves head root and optimistic info of the current chain.
type HeadRetriever interface {
	Head() *forkchoicetypes.ProtoBlock
	UpdateHead(ctx context.Context) (*forkchoicetypes.ProtoBlock, error)
}

// BlockProcessor processes the block that's used for accounting fork choice.
type BlockProcessor interface {
	OnBlock(
		ctx context.Context,
		blk blocks.ROBlock,
		st state.ReadOnlyBeaconState,
		blockDelaySec uint64,
		currentSlot primitives.Slot,
		executionStatus forkchoicetypes.ExecutionStatus,
		daStatus forkchoicetypes.DataAvailabilityStatus,
	) (*forkchoicetypes.ProtoBlock, error)
}

// AttestationProcessor processes the attestation that's used for accounting fork choice.
type AttestationProcessor interface {
	OnAttestation(ctx context.Context, att *blocks.IndexedAttestation, dataRoot [32]byte, force bool) error
	OnAttesterSlashing(slashing *blocks.AttesterSlashing) error
}

// Getter returns fork choice related information.
type Getter interface {
	HasNode([32]byte) bool
	Block(root [32]byte) *forkchoicetypes.ProtoBlock
	FinalizedCheckpoint() *forkchoicetypes.Checkpoint
	JustifiedCheckpoint() *forkchoicetypes.Checkpoint
	JustifiedBlock() *forkchoicetypes.ProtoBlock
	FinalizedBlock() *forkchoicetypes.ProtoBlock
	DependentRoot(blk *forkchoicetypes.ProtoBlock, diff forkchoicetypes.EpochDifference) ([32]byte, error)
	CommonAncestorDepth(prev, next *forkchoicetypes.ProtoBlock) forkchoicetypes.AncestorResult
	NodeCount() int
}
