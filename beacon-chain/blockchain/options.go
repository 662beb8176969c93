package blockchain

import (
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/core/feed"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/db"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/execution"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/forkchoice"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/state/stategen"
)

// Option is a functional option of the blockchain service.
type Option func(s *Service) error

// WithDatabase for head access.
func WithDatabase(beaconDB db.HeadAccessDatabase) Option {
	return func(s *Service) error {
		s.cfg.BeaconDB = beaconDB
		return nil
	}
}

// WithForkChoiceStore for block registration and head selection.
func WithForkChoiceStore(f forkchoice.ForkChoicer) Option {
	return func(s *Service) error {
		s.cfg.ForkChoiceStore = f
		return nil
	}
}

// WithStateGen for post-state caching.
func WithStateGen(g stategen.StateManager) Option {
	return func(s *Service) error {
		s.cfg.StateGen = g
		return nil
	}
}

// WithStateNotifier to notify subscribers of head, reorg, checkpoint and block events.
func WithStateNotifier(n feed.Notifier) Option {
	return func(s *Service) error {
		s.cfg.StateNotifier = n
		return nil
	}
}

// WithExecutionEngineCaller to call the execution engine.
func WithExecutionEngineCaller(c execution.EngineCaller) Option {
	return func(s *Service) error {
		s.cfg.ExecutionEngineCaller = c
		return nil
	}
}

// WithClock sets the wall clock the import pipeline measures slots with.
func WithClock(c Clock) Option {
	return func(s *Service) error {
		s.clock = c
		return nil
	}
}

// WithReprocessController to release operations waiting for imported blocks.
func WithReprocessController(r ReprocessController) Option {
	return func(s *Service) error {
		s.cfg.Reprocess = r
		return nil
	}
}

// WithLightClientServer to produce light client updates on head changes.
func WithLightClientServer(l LightClientServer) Option {
	return func(s *Service) error {
		s.cfg.LightClientServer = l
		return nil
	}
}

// WithBlockVerifier to run the state transition of chain segments.
func WithBlockVerifier(v BlockVerifier) Option {
	return func(s *Service) error {
		s.cfg.BlockVerifier = v
		return nil
	}
}
