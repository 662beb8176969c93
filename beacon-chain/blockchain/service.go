// Package blockchain defines the import pipeline of the beacon node: it commits
// verified blocks and their post-states to storage, fork choice and the state
// caches, recomputes the head and notifies subscribers and the execution engine.
package blockchain

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-ingest/async"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/cache"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/core/feed"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/db"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/execution"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/forkchoice"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/state/stategen"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/blocks"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
)

// ReprocessController is told about every imported block so that operations
// waiting for that block can be retried.
type ReprocessController interface {
	OnBlockImported(slot primitives.Slot, root [32]byte, advancedSlot primitives.Slot)
}

// LightClientServer produces light client updates when an imported block becomes head.
type LightClientServer interface {
	OnImportBlockHead(blk blocks.ROBlock, postState state.BeaconState, parentBlockSlot primitives.Slot) error
}

// Service represents a service that handles the internal
// logic of managing the full PoS beacon chain.
type Service struct {
	cfg    *config
	ctx    context.Context
	cancel context.CancelFunc
	clock  Clock

	// deferred holds work that runs after the critical path of an import.
	deferred                   *async.Queue
	seenAggregatedAttestations *cache.SeenAggregatedAttestations
	seenBlockAttesters         *cache.SeenBlockAttesters
}

// config options for the service.
type config struct {
	BeaconDB              db.HeadAccessDatabase
	ForkChoiceStore       forkchoice.ForkChoicer
	StateGen              stategen.StateManager
	StateNotifier         feed.Notifier
	ExecutionEngineCaller execution.EngineCaller
	Reprocess             ReprocessController
	LightClientServer     LightClientServer
	BlockVerifier         BlockVerifier
}

// New instantiates a new block service instance that will
// be registered into a running beacon node.
func New(ctx context.Context, opts ...Option) (*Service, error) {
	ctx, cancel := context.WithCancel(ctx)
	srv := &Service{
		ctx:                        ctx,
		cancel:                     cancel,
		cfg:                        &config{},
		deferred:                   async.NewQueue("import-block"),
		seenAggregatedAttestations: cache.NewSeenAggregatedAttestations(),
		seenBlockAttesters:         cache.NewSeenBlockAttesters(),
	}
	for _, opt := range opts {
		if err := opt(srv); err != nil {
			cancel()
			return nil, err
		}
	}
	switch {
	case srv.cfg.BeaconDB == nil:
		cancel()
		return nil, errors.Wrap(errMissingDependency, "database")
	case srv.cfg.ForkChoiceStore == nil:
		cancel()
		return nil, errors.Wrap(errMissingDependency, "fork choice store")
	case srv.cfg.StateGen == nil:
		cancel()
		return nil, errors.Wrap(errMissingDependency, "state generator")
	}
	if srv.cfg.StateNotifier == nil {
		srv.cfg.StateNotifier = feed.NewBus()
	}
	if srv.clock == nil {
		srv.clock = NewClock(time.Now())
	}
	return srv, nil
}

// Start the deferred work queue of the import pipeline.
func (s *Service) Start() {
	s.deferred.Start(s.ctx)
	head := s.cfg.ForkChoiceStore.Head()
	log.WithField("headSlot", head.Slot).Info("Started blockchain service")
}

// Stop the blockchain service. Deferred work that has not run yet is run before returning.
func (s *Service) Stop() error {
	defer s.cancel()
	s.deferred.Drain()
	return nil
}

// Status always returns nil unless there is an error condition that causes
// this service to be unhealthy.
func (s *Service) Status() error {
	return nil
}

// StateNotifier returns the notifier events of the import pipeline are sent to.
func (s *Service) StateNotifier() feed.Notifier {
	return s.cfg.StateNotifier
}

// Clock returns the wall clock of the service.
func (s *Service) Clock() Clock {
	return s.clock
}

// CurrentSlot returns the current wall clock slot.
func (s *Service) CurrentSlot() primitives.Slot {
	return s.clock.CurrentSlot()
}
