// Package params defines important constants that are essential to the
// beacon node's import pipeline and range sync.
package params

import (
	"time"

	"github.com/mohae/deepcopy"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
)

// BeaconChainConfig contains constant configs for node to participate in beacon chain.
type BeaconChainConfig struct {
	// Constants (non-configurable)
	FarFutureEpoch primitives.Epoch `yaml:"FAR_FUTURE_EPOCH"`
	ZeroHash       [32]byte         // ZeroHash is used to represent a zeroed out 32 byte array.

	// Config name and preset.
	ConfigName string `yaml:"CONFIG_NAME"`
	PresetBase string `yaml:"PRESET_BASE"`

	// Time parameters constants.
	SecondsPerSlot   uint64           `yaml:"SECONDS_PER_SLOT"`   // SecondsPerSlot is how many seconds are in a single slot.
	SlotsPerEpoch    primitives.Slot  `yaml:"SLOTS_PER_EPOCH"`    // SlotsPerEpoch is the number of slots in an epoch.
	MaxSeedLookahead primitives.Epoch `yaml:"MAX_SEED_LOOKAHEAD"` // MaxSeedLookahead is the duration of randao look ahead seed.
	IntervalsPerSlot uint64           `yaml:"INTERVALS_PER_SLOT"` // IntervalsPerSlot defines the number of fork choice intervals in a slot.

	// Fork choice and event stream windows.
	ForkChoiceAttEpochLimit     primitives.Epoch `yaml:"FORK_CHOICE_ATT_EPOCH_LIMIT"`     // ForkChoiceAttEpochLimit bounds how old a block may be for its attestations to be imported into fork choice.
	EventStreamRecentBlockSlots primitives.Slot  `yaml:"EVENT_STREAM_RECENT_BLOCK_SLOTS"` // EventStreamRecentBlockSlots is the age in slots beyond which imported blocks do not fan out events.

	// Range sync.
	EpochsPerBatch           uint64 `yaml:"EPOCHS_PER_BATCH"`            // EpochsPerBatch is the number of epochs requested per range sync batch.
	MaxBatchDownloadAttempts uint64 `yaml:"MAX_BATCH_DOWNLOAD_ATTEMPTS"` // MaxBatchDownloadAttempts caps how often a batch may fail to download.
	MaxBatchProcessAttempts  uint64 `yaml:"MAX_BATCH_PROCESS_ATTEMPTS"`  // MaxBatchProcessAttempts caps how often a batch may fail processing.
	BatchBufferSize          uint64 `yaml:"BATCH_BUFFER_SIZE"`           // BatchBufferSize is the number of batches range sync keeps in flight.
	MaxRequestBlocks         uint64 `yaml:"MAX_REQUEST_BLOCKS"`          // MaxRequestBlocks is the maximum number of blocks in a single request.

	// Fork related values.
	GenesisForkVersion   []byte           `yaml:"GENESIS_FORK_VERSION"`
	AltairForkVersion    []byte           `yaml:"ALTAIR_FORK_VERSION"`
	AltairForkEpoch      primitives.Epoch `yaml:"ALTAIR_FORK_EPOCH"`
	BellatrixForkVersion []byte           `yaml:"BELLATRIX_FORK_VERSION"`
	BellatrixForkEpoch   primitives.Epoch `yaml:"BELLATRIX_FORK_EPOCH"`
	CapellaForkVersion   []byte           `yaml:"CAPELLA_FORK_VERSION"`
	CapellaForkEpoch     primitives.Epoch `yaml:"CAPELLA_FORK_EPOCH"`
	DenebForkVersion     []byte           `yaml:"DENEB_FORK_VERSION"`
	DenebForkEpoch       primitives.Epoch `yaml:"DENEB_FORK_EPOCH"`

	// Blob parameters.
	VersionedHashVersionKzg byte `yaml:"VERSIONED_HASH_VERSION_KZG"`

	// Caches.
	CheckpointStateCacheSize int `yaml:"CHECKPOINT_STATE_CACHE_SIZE"` // CheckpointStateCacheSize bounds the number of epoch boundary states held in memory.
	HotStateCacheSize        int `yaml:"HOT_STATE_CACHE_SIZE"`        // HotStateCacheSize bounds the number of post states held by the state generator.
	SeenAttestationCacheSize int `yaml:"SEEN_ATTESTATION_CACHE_SIZE"` // SeenAttestationCacheSize bounds the seen aggregated attestation cache.

	// Deferred block reprocessing.
	ReprocessWaitDuration time.Duration `yaml:"REPROCESS_WAIT_DURATION"` // ReprocessWaitDuration is how long an item waits for its block before it is dropped.
}

// Copy returns a copy of the config object.
func (b *BeaconChainConfig) Copy() *BeaconChainConfig {
	config, ok := deepcopy.Copy(*b).(BeaconChainConfig)
	if !ok {
		config = *b
	}
	return &config
}

// SlotDuration returns the duration of a single slot.
func (b *BeaconChainConfig) SlotDuration() time.Duration {
	return time.Duration(b.SecondsPerSlot) * time.Second
}

// SlotsPerBatch returns the number of slots covered by one range sync batch.
func (b *BeaconChainConfig) SlotsPerBatch() uint64 {
	return uint64(b.SlotsPerEpoch) * b.EpochsPerBatch
}

var beaconConfig = MainnetConfig()

// BeaconConfig retrieves beacon chain config.
func BeaconConfig() *BeaconChainConfig {
	return beaconConfig
}

// OverrideBeaconConfig by replacing the config. The preferred pattern is to
// call BeaconConfig(), change the specific parameters, and then call
// OverrideBeaconConfig(c). Any subsequent calls to params.BeaconConfig() will
// return this new configuration.
func OverrideBeaconConfig(c *BeaconChainConfig) {
	beaconConfig = c
}
