package cache

import (
	"sync"

	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
)

// SeenBlockAttesters tracks validators whose attestation was included in an
// imported block, per block epoch.
type SeenBlockAttesters struct {
	epochs map[primitives.Epoch]map[primitives.ValidatorIndex]struct{}
	lock   sync.RWMutex
}

// NewSeenBlockAttesters creates an empty tracker.
func NewSeenBlockAttesters() *SeenBlockAttesters {
	return &SeenBlockAttesters{
		epochs: make(map[primitives.Epoch]map[primitives.ValidatorIndex]struct{}),
	}
}

// AddIndices marks the given validators as seen in the epoch.
func (s *SeenBlockAttesters) AddIndices(epoch primitives.Epoch, indices []primitives.ValidatorIndex) {
	s.lock.Lock()
	defer s.lock.Unlock()
	seen, ok := s.epochs[epoch]
	if !ok {
		seen = make(map[primitives.ValidatorIndex]struct{}, len(indices))
		s.epochs[epoch] = seen
	}
	for _, idx := range indices {
		seen[idx] = struct{}{}
	}
}

// IsKnown returns true if the validator was seen attesting in a block of the epoch.
func (s *SeenBlockAttesters) IsKnown(epoch primitives.Epoch, idx primitives.ValidatorIndex) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	_, ok := s.epochs[epoch][idx]
	return ok
}

// Prune drops every epoch older than the one before currentEpoch.
func (s *SeenBlockAttesters) Prune(currentEpoch primitives.Epoch) {
	s.lock.Lock()
	defer s.lock.Unlock()
	for epoch := range s.epochs {
		if epoch+1 < currentEpoch {
			delete(s.epochs, epoch)
		}
	}
}
