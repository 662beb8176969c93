package blockchain

import (
	"time"

	"github.com/prysmaticlabs/beacon-ingest/config/params"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-ingest/time/slots"
)

// Clock is the wall clock of the import pipeline, measured in slots since genesis.
type Clock interface {
	GenesisTime() time.Time
	Now() time.Time
	CurrentSlot() primitives.Slot
	SecondsFromSlot(slot primitives.Slot) float64
	SlotWithFutureTolerance(tolerance time.Duration) primitives.Slot
}

// clock is a Clock backed by a genesis time and a Now function.
type clock struct {
	genesis time.Time
	now     Now
}

var _ Clock = &clock{}

// GenesisTime returns the genesis timestamp.
func (c *clock) GenesisTime() time.Time {
	return c.genesis
}

// Now provides a value for time.Now() that can be overridden in tests.
func (c *clock) Now() time.Time {
	return c.now()
}

// CurrentSlot returns the current slot relative to genesis.
func (c *clock) CurrentSlot() primitives.Slot {
	return slots.CurrentSlot(c.genesis, c.now())
}

// SecondsFromSlot returns the seconds elapsed since the start of the given slot.
// The result is negative for slots in the future.
func (c *clock) SecondsFromSlot(slot primitives.Slot) float64 {
	return c.now().Sub(slots.StartTime(c.genesis, slot)).Seconds()
}

// SlotWithFutureTolerance returns the slot the clock will be in after tolerance.
// Work scheduled close to a slot boundary uses it to act on the upcoming slot.
func (c *clock) SlotWithFutureTolerance(tolerance time.Duration) primitives.Slot {
	return slots.CurrentSlot(c.genesis, c.now().Add(tolerance))
}

// ClockOpt is a functional option to change the behavior of a clock value made by NewClock.
type ClockOpt func(*clock)

// WithNow allows tests in particular to inject an alternate implementation of time.Now (vs using system time)
func WithNow(n Now) ClockOpt {
	return func(c *clock) {
		c.now = n
	}
}

// NewClock constructs a clock for the given genesis time. Without WithNow the system time is used.
func NewClock(genesis time.Time, opts ...ClockOpt) Clock {
	c := &clock{genesis: genesis}
	for _, o := range opts {
		o(c)
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Now is a function that can return the current time. This will be time.Now by default, but can be overridden for tests.
type Now func() time.Time

// slotDelaySec is the offset of t into the given slot, in whole seconds, as
// reported to fork choice. Times before the slot start yield zero.
func slotDelaySec(genesis time.Time, slot primitives.Slot, t time.Time) uint64 {
	d := t.Sub(slots.StartTime(genesis, slot))
	if d < 0 {
		return 0
	}
	return uint64(d/time.Second) % params.BeaconConfig().SecondsPerSlot
}
