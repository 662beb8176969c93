// Package slots contains slot and epoch arithmetic on top of the active
// beacon chain config.
package slots

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-ingest/config/params"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
)

// ToEpoch returns the epoch number of the input slot.
//
// Consensus pseudocode definition:
//  def compute_epoch_at_slot(slot: Slot) -> Epoch:
//    """
//    Return the epoch number at ``slot``.
//    """
//    return Epoch(slot // SLOTS_PER_EPOCH)
func ToEpoch(slot primitives.Slot) primitives.Epoch {
	return primitives.Epoch(slot / params.BeaconConfig().SlotsPerEpoch)
}

// EpochStart returns the first slot number of the
// current epoch.
//
// Consensus pseudocode definition:
//  def compute_start_slot_at_epoch(epoch: Epoch) -> Slot:
//    """
//    Return the start slot of ``epoch``.
//    """
//    return Slot(epoch * SLOTS_PER_EPOCH)
func EpochStart(epoch primitives.Epoch) (primitives.Slot, error) {
	spe := uint64(params.BeaconConfig().SlotsPerEpoch)
	if spe != 0 && uint64(epoch) > ^uint64(0)/spe {
		return 0, errors.Errorf("start slot calculation overflows: epoch %d", epoch)
	}
	return primitives.Slot(uint64(epoch) * spe), nil
}

// UnsafeEpochStart is a version of EpochStart that panics if there is an overflow.
func UnsafeEpochStart(epoch primitives.Epoch) primitives.Slot {
	es, err := EpochStart(epoch)
	if err != nil {
		panic(err) // lint:nopanic -- Unsafe is implied and communicated in the godoc commentary.
	}
	return es
}

// IsEpochStart returns true if the given slot number is an epoch starting slot
// number.
func IsEpochStart(slot primitives.Slot) bool {
	return slot%params.BeaconConfig().SlotsPerEpoch == 0
}

// StartTime returns the start time of the given slot.
func StartTime(genesis time.Time, slot primitives.Slot) time.Time {
	return genesis.Add(time.Duration(uint64(slot)*params.BeaconConfig().SecondsPerSlot) * time.Second)
}

// SinceGenesis returns the slot since the given genesis time. Times before
// genesis map to slot 0.
func SinceGenesis(genesis time.Time) primitives.Slot {
	return CurrentSlot(genesis, time.Now())
}

// CurrentSlot returns the slot at now for a chain started at genesis.
func CurrentSlot(genesis, now time.Time) primitives.Slot {
	if now.Before(genesis) {
		return 0
	}
	return primitives.Slot(uint64(now.Sub(genesis).Seconds()) / params.BeaconConfig().SecondsPerSlot)
}

// Duration computes the span of time between two instants, represented as Slots.
func Duration(start, end time.Time) primitives.Slot {
	if end.Before(start) {
		return 0
	}
	return primitives.Slot(uint64(end.Unix()-start.Unix()) / params.BeaconConfig().SecondsPerSlot)
}
