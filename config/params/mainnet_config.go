package params

import (
	"math"
	"time"

	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
)

// MainnetConfig returns the configuration to be used in the main network.
func MainnetConfig() *BeaconChainConfig {
	return mainnetBeaconConfig.Copy()
}

var mainnetBeaconConfig = &BeaconChainConfig{
	FarFutureEpoch: math.MaxUint64,
	ZeroHash:       [32]byte{},

	ConfigName: "mainnet",
	PresetBase: "mainnet",

	SecondsPerSlot:   12,
	SlotsPerEpoch:    32,
	MaxSeedLookahead: 4,
	IntervalsPerSlot: 3,

	ForkChoiceAttEpochLimit:     1,
	EventStreamRecentBlockSlots: 64,

	EpochsPerBatch:           2,
	MaxBatchDownloadAttempts: 5,
	MaxBatchProcessAttempts:  3,
	BatchBufferSize:          5,
	MaxRequestBlocks:         1024,

	GenesisForkVersion:   []byte{0, 0, 0, 0},
	AltairForkVersion:    []byte{1, 0, 0, 0},
	AltairForkEpoch:      74240,
	BellatrixForkVersion: []byte{2, 0, 0, 0},
	BellatrixForkEpoch:   144896,
	CapellaForkVersion:   []byte{3, 0, 0, 0},
	CapellaForkEpoch:     194048,
	DenebForkVersion:     []byte{4, 0, 0, 0},
	DenebForkEpoch:       269568,

	VersionedHashVersionKzg: 1,

	CheckpointStateCacheSize: 10,
	HotStateCacheSize:        64,
	SeenAttestationCacheSize: 2048,

	ReprocessWaitDuration: 12 * time.Second,
}

// MinimalSpecConfig retrieves the minimal preset, used by tests.
func MinimalSpecConfig() *BeaconChainConfig {
	minimalConfig := mainnetBeaconConfig.Copy()
	minimalConfig.ConfigName = "minimal"
	minimalConfig.PresetBase = "minimal"
	minimalConfig.SecondsPerSlot = 6
	minimalConfig.SlotsPerEpoch = 8
	minimalConfig.AltairForkVersion = []byte{1, 0, 0, 1}
	minimalConfig.AltairForkEpoch = math.MaxUint64
	minimalConfig.BellatrixForkVersion = []byte{2, 0, 0, 1}
	minimalConfig.BellatrixForkEpoch = math.MaxUint64
	minimalConfig.CapellaForkVersion = []byte{3, 0, 0, 1}
	minimalConfig.CapellaForkEpoch = math.MaxUint64
	minimalConfig.DenebForkVersion = []byte{4, 0, 0, 1}
	minimalConfig.DenebForkEpoch = math.MaxUint64
	minimalConfig.ReprocessWaitDuration = 6 * time.Second
	return minimalConfig
}

// ForkName identifies a consensus fork.
type ForkName int

const (
	ForkPhase0 ForkName = iota
	ForkAltair
	ForkBellatrix
	ForkCapella
	ForkDeneb
)

func (f ForkName) String() string {
	switch f {
	case ForkPhase0:
		return "phase0"
	case ForkAltair:
		return "altair"
	case ForkBellatrix:
		return "bellatrix"
	case ForkCapella:
		return "capella"
	case ForkDeneb:
		return "deneb"
	default:
		return "unknown"
	}
}

// ForkAtEpoch returns the active fork at the given epoch.
func (b *BeaconChainConfig) ForkAtEpoch(e primitives.Epoch) ForkName {
	switch {
	case e >= b.DenebForkEpoch:
		return ForkDeneb
	case e >= b.CapellaForkEpoch:
		return ForkCapella
	case e >= b.BellatrixForkEpoch:
		return ForkBellatrix
	case e >= b.AltairForkEpoch:
		return ForkAltair
	default:
		return ForkPhase0
	}
}
