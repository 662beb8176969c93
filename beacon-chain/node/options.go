package node

import (
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/blockchain"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/execution"
)

// Option for beacon node configuration.
type Option func(bn *BeaconNode) error

// WithAnchor starts the node from the given anchor instead of the one named by
// the anchor flags.
func WithAnchor(a *Anchor) Option {
	return func(bn *BeaconNode) error {
		bn.anchor = a
		return nil
	}
}

// WithExecutionEngineCaller uses c instead of dialing the execution endpoint flag.
func WithExecutionEngineCaller(c execution.EngineCaller) Option {
	return func(bn *BeaconNode) error {
		bn.engine = c
		return nil
	}
}

// WithBlockchainOptions adds options to the blockchain service.
func WithBlockchainOptions(opts ...blockchain.Option) Option {
	return func(bn *BeaconNode) error {
		bn.blockchainOpts = append(bn.blockchainOpts, opts...)
		return nil
	}
}
