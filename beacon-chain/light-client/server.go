// Package lightclient produces light client updates from the blocks that become
// head. The sync aggregate of a head block signs its parent, so the server keeps
// the headers of recent heads to build the update once the child arrives.
package lightclient

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/blocks"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
	"github.com/sirupsen/logrus"
)

// recentHeads bounds the attested headers kept in memory.
const recentHeads = 64

var (
	errNoSyncAggregate       = errors.New("block has no sync aggregate")
	errNotEnoughParticipants = errors.New("sync aggregate has no participants")
	errUnknownAttestedBlock  = errors.New("attested block is not a recent head")
	errAttestedSlotMismatch  = errors.New("attested header slot does not match the parent slot")
)

// OptimisticUpdate is the header attested by a sync aggregate.
type OptimisticUpdate struct {
	AttestedHeader *blocks.BeaconBlockHeader
	SyncAggregate  *blocks.SyncAggregate
	SignatureSlot  primitives.Slot
}

// FinalityUpdate is an optimistic update together with the finalized checkpoint
// of the attested state.
type FinalityUpdate struct {
	*OptimisticUpdate
	FinalizedCheckpoint *blocks.Checkpoint
}

type attestedData struct {
	header    *blocks.BeaconBlockHeader
	finalized *blocks.Checkpoint
}

// Server keeps the latest light client updates.
type Server struct {
	lock       sync.RWMutex
	attested   *lru.Cache
	optimistic *OptimisticUpdate
	finality   *FinalityUpdate
}

// NewServer creates an empty light client server.
func NewServer() *Server {
	c, err := lru.New(recentHeads)
	if err != nil {
		panic(err) // lru.New only errors on a non-positive size.
	}
	return &Server{attested: c}
}

// OnImportBlockHead records blk as a possible attested block and builds the
// updates signed by its sync aggregate.
func (s *Server) OnImportBlockHead(blk blocks.ROBlock, postState state.BeaconState, parentBlockSlot primitives.Slot) error {
	signed, err := blk.Header()
	if err != nil {
		return errors.Wrap(err, "could not get block header")
	}
	s.attested.Add(blk.Root(), &attestedData{
		header:    signed.Header,
		finalized: postState.FinalizedCheckpoint().Copy(),
	})

	agg := blk.Body().SyncAggregate
	if agg == nil {
		return errNoSyncAggregate
	}
	participants := agg.SyncCommitteeBits.Count()
	if participants == 0 {
		return errNotEnoughParticipants
	}
	v, ok := s.attested.Get(blk.ParentRoot())
	if !ok {
		return errors.Wrapf(errUnknownAttestedBlock, "parent slot %d", parentBlockSlot)
	}
	data, ok := v.(*attestedData)
	if !ok {
		return errors.New("attested cache holds an unexpected value")
	}
	if data.header.Slot != parentBlockSlot {
		return errors.Wrapf(errAttestedSlotMismatch, "header slot %d, parent slot %d", data.header.Slot, parentBlockSlot)
	}

	update := &OptimisticUpdate{
		AttestedHeader: data.header,
		SyncAggregate:  agg,
		SignatureSlot:  blk.Slot(),
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	if !isBetter(update, s.optimistic) {
		return nil
	}
	s.optimistic = update
	lightClientUpdates.WithLabelValues("optimistic").Inc()
	lightClientParticipation.Set(float64(participants))
	if data.finalized != nil && data.finalized.Epoch > 0 {
		s.finality = &FinalityUpdate{OptimisticUpdate: update, FinalizedCheckpoint: data.finalized}
		lightClientUpdates.WithLabelValues("finality").Inc()
	}
	log.WithFields(logrus.Fields{
		"attestedSlot":  data.header.Slot,
		"signatureSlot": blk.Slot(),
		"participants":  participants,
	}).Debug("Produced light client update")
	return nil
}

// LatestOptimisticUpdate returns the newest optimistic update, or nil.
func (s *Server) LatestOptimisticUpdate() *OptimisticUpdate {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.optimistic
}

// LatestFinalityUpdate returns the newest finality update, or nil.
func (s *Server) LatestFinalityUpdate() *FinalityUpdate {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.finality
}

// isBetter prefers newer attested headers, then more participants.
func isBetter(update, current *OptimisticUpdate) bool {
	if current == nil {
		return true
	}
	if update.AttestedHeader.Slot != current.AttestedHeader.Slot {
		return update.AttestedHeader.Slot > current.AttestedHeader.Slot
	}
	return update.SyncAggregate.SyncCommitteeBits.Count() > current.SyncAggregate.SyncCommitteeBits.Count()
}
