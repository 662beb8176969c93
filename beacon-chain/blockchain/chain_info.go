package blockchain

import (
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/forkchoice"
	forkchoicetypes "github.com/prysmaticlabs/beacon-ingest/beacon-chain/forkchoice/types"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
)

// HeadFetcher defines a common interface for methods in blockchain service which
// directly retrieve head related data.
type HeadFetcher interface {
	HeadSlot() primitives.Slot
	HeadRoot() [32]byte
	HeadState() state.BeaconState
	IsOptimistic() bool
}

// FinalizationFetcher defines a common interface for methods in blockchain service which
// directly retrieve finalization and justification related data.
type FinalizationFetcher interface {
	FinalizedCheckpoint() *forkchoicetypes.Checkpoint
	JustifiedCheckpoint() *forkchoicetypes.Checkpoint
}

// ForkchoiceFetcher defines a common interface for methods in blockchain service which
// directly retrieve fork choice related data.
type ForkchoiceFetcher interface {
	ForkChoicer() forkchoice.ForkChoicer
	HasBlock(root [32]byte) bool
}

var (
	_ HeadFetcher         = (*Service)(nil)
	_ FinalizationFetcher = (*Service)(nil)
	_ ForkchoiceFetcher   = (*Service)(nil)
)

// HeadSlot returns the slot of the head of the chain.
func (s *Service) HeadSlot() primitives.Slot {
	return s.cfg.ForkChoiceStore.Head().Slot
}

// HeadRoot returns the root of the head of the chain.
func (s *Service) HeadRoot() [32]byte {
	return s.cfg.ForkChoiceStore.Head().BlockRoot
}

// HeadState returns the post-state of the head block, or nil before the first head was set.
func (s *Service) HeadState() state.BeaconState {
	_, st := s.cfg.StateGen.HeadState()
	return st
}

// IsOptimistic returns true if the head block was imported without a verified payload.
func (s *Service) IsOptimistic() bool {
	return s.cfg.ForkChoiceStore.Head().IsOptimistic()
}

// FinalizedCheckpoint returns the finalized checkpoint of fork choice.
func (s *Service) FinalizedCheckpoint() *forkchoicetypes.Checkpoint {
	return s.cfg.ForkChoiceStore.FinalizedCheckpoint()
}

// JustifiedCheckpoint returns the justified checkpoint of fork choice.
func (s *Service) JustifiedCheckpoint() *forkchoicetypes.Checkpoint {
	return s.cfg.ForkChoiceStore.JustifiedCheckpoint()
}

// ForkChoicer returns the fork choice store of the service.
func (s *Service) ForkChoicer() forkchoice.ForkChoicer {
	return s.cfg.ForkChoiceStore
}

// HasBlock returns true if the block is known to fork choice.
func (s *Service) HasBlock(root [32]byte) bool {
	return s.cfg.ForkChoiceStore.HasNode(root)
}
