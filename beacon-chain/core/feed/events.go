// Package feed contains the typed notification bus of the beacon node together
// with the events fired while importing blocks.
package feed

import (
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/blocks"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
)

// EventType identifies the kind of an event. Subscribers listen to one kind at a time.
type EventType int

const (
	// HeadEvent is sent when the canonical head changes.
	HeadEvent EventType = iota
	// ChainReorgEvent is sent when the new head does not descend from the old head.
	ChainReorgEvent
	// CheckpointEvent is sent when a block lands on an epoch boundary and its post-state is cached.
	CheckpointEvent
	// FinalizedCheckpointEvent is sent once per finalized epoch advance.
	FinalizedCheckpointEvent
	// BlockEvent is sent for every recent block that was imported.
	BlockEvent
	// VoluntaryExitEvent is sent for each voluntary exit in a recent block.
	VoluntaryExitEvent
	// BLSToExecutionChangeEvent is sent for each BLS to execution change in a recent block.
	BLSToExecutionChangeEvent
	// AttestationEvent is sent for each attestation in a recent block.
	AttestationEvent
	// AttesterSlashingEvent is sent for each attester slashing in a recent block.
	AttesterSlashingEvent
	// ProposerSlashingEvent is sent for each proposer slashing in a recent block.
	ProposerSlashingEvent
	// BlobSidecarEvent is sent for each blob sidecar of a recent block with available data.
	BlobSidecarEvent

	numEventTypes
)

func (t EventType) String() string {
	switch t {
	case HeadEvent:
		return "head"
	case ChainReorgEvent:
		return "chain_reorg"
	case CheckpointEvent:
		return "checkpoint"
	case FinalizedCheckpointEvent:
		return "finalized_checkpoint"
	case BlockEvent:
		return "block"
	case VoluntaryExitEvent:
		return "voluntary_exit"
	case BLSToExecutionChangeEvent:
		return "bls_to_execution_change"
	case AttestationEvent:
		return "attestation"
	case AttesterSlashingEvent:
		return "attester_slashing"
	case ProposerSlashingEvent:
		return "proposer_slashing"
	case BlobSidecarEvent:
		return "blob_sidecar"
	default:
		return "unknown"
	}
}

// Event is the value delivered to subscribers.
type Event struct {
	Type EventType
	Data interface{}
}

// HeadEventData is the data sent with HeadEvent.
type HeadEventData struct {
	Slot                      primitives.Slot
	Block                     [32]byte
	State                     [32]byte
	EpochTransition           bool
	PreviousDutyDependentRoot [32]byte
	CurrentDutyDependentRoot  [32]byte
	ExecutionOptimistic       bool
}

// ChainReorgEventData is the data sent with ChainReorgEvent.
type ChainReorgEventData struct {
	Slot                primitives.Slot
	Depth               uint64
	OldHeadBlock        [32]byte
	NewHeadBlock        [32]byte
	OldHeadState        [32]byte
	NewHeadState        [32]byte
	Epoch               primitives.Epoch
	ExecutionOptimistic bool
}

// CheckpointEventData is the data sent with CheckpointEvent. State is a copy
// owned by the receiver.
type CheckpointEventData struct {
	Checkpoint *blocks.Checkpoint
	State      state.BeaconState
}

// FinalizedCheckpointEventData is the data sent with FinalizedCheckpointEvent.
type FinalizedCheckpointEventData struct {
	Block               [32]byte
	State               [32]byte
	Epoch               primitives.Epoch
	ExecutionOptimistic bool
}

// BlockEventData is the data sent with BlockEvent.
type BlockEventData struct {
	Slot                primitives.Slot
	Block               [32]byte
	ExecutionOptimistic bool
}

// BlobSidecarEventData is the data sent with BlobSidecarEvent.
type BlobSidecarEventData struct {
	BlockRoot     [32]byte
	Index         uint64
	Slot          primitives.Slot
	KzgCommitment [48]byte
	VersionedHash [32]byte
}
