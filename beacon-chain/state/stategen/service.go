// Package stategen caches post-states produced by block import, keyed by block
// root and by checkpoint, and keeps a strong reference to the head state.
package stategen

import (
	"context"
	"fmt"
	"sync"

	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/cache"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/blocks"
	"github.com/prysmaticlabs/beacon-ingest/encoding/bytesutil"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

// StateManager represents a management object that handles the internal
// logic of maintaining post-states for the import pipeline.
type StateManager interface {
	ProcessState(ctx context.Context, blockRoot [32]byte, st state.BeaconState) error
	UpdateHeadState(headRoot [32]byte, st state.BeaconState)
	AddCheckpointState(cp *blocks.Checkpoint, st state.BeaconState) error
	StateByRoot(ctx context.Context, blockRoot [32]byte) (state.BeaconState, error)
	CheckpointState(cp *blocks.Checkpoint) (state.BeaconState, error)
	HeadState() (root [32]byte, st state.BeaconState)
}

// State is the in-memory state manager.
type State struct {
	hotStateCache   *hotStateCache
	checkpointCache *cache.CheckpointStateCache

	headLock  sync.RWMutex
	headRoot  [32]byte
	headState state.BeaconState
}

var _ StateManager = (*State)(nil)

// New returns a new state management object.
func New() *State {
	return &State{
		hotStateCache:   newHotStateCache(),
		checkpointCache: cache.NewCheckpointStateCache(),
	}
}

// ProcessState records the post-state of an imported block under its root.
func (s *State) ProcessState(ctx context.Context, blockRoot [32]byte, st state.BeaconState) error {
	_, span := trace.StartSpan(ctx, "stateGen.ProcessState")
	defer span.End()
	if st == nil {
		return errNilState
	}
	if s.hotStateCache.has(blockRoot) {
		return nil
	}
	s.hotStateCache.put(blockRoot, st)
	return nil
}

// UpdateHeadState promotes st to the head state. The head state is held outside
// of the evictable caches.
func (s *State) UpdateHeadState(headRoot [32]byte, st state.BeaconState) {
	s.headLock.Lock()
	defer s.headLock.Unlock()
	s.headRoot = headRoot
	s.headState = st
	log.WithFields(logrus.Fields{
		"slot": st.Slot(),
		"root": fmt.Sprintf("%#x", bytesutil.Trunc(headRoot[:])),
	}).Debug("Updated head state")
}

// HeadState returns the strong head reference.
func (s *State) HeadState() ([32]byte, state.BeaconState) {
	s.headLock.RLock()
	defer s.headLock.RUnlock()
	return s.headRoot, s.headState
}

// AddCheckpointState caches st as the state of the given checkpoint.
func (s *State) AddCheckpointState(cp *blocks.Checkpoint, st state.BeaconState) error {
	return s.checkpointCache.AddCheckpointState(cp, st)
}

// CheckpointState returns the cached state of a checkpoint, or nil.
func (s *State) CheckpointState(cp *blocks.Checkpoint) (state.BeaconState, error) {
	return s.checkpointCache.StateByCheckpoint(cp)
}

// StateByRoot retrieves the post-state of a block root. The head state is
// returned without consulting the cache.
func (s *State) StateByRoot(ctx context.Context, blockRoot [32]byte) (state.BeaconState, error) {
	_, span := trace.StartSpan(ctx, "stateGen.StateByRoot")
	defer span.End()

	s.headLock.RLock()
	if s.headState != nil && s.headRoot == blockRoot {
		st := s.headState.Copy()
		s.headLock.RUnlock()
		return st, nil
	}
	s.headLock.RUnlock()

	if st := s.hotStateCache.get(blockRoot); st != nil {
		return st, nil
	}
	return nil, errUnknownState
}

// DeleteStateFromCaches drops a post-state that is no longer reachable.
func (s *State) DeleteStateFromCaches(blockRoot [32]byte) {
	s.hotStateCache.delete(blockRoot)
}
