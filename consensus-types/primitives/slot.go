// Package primitives defines the scalar consensus types shared across the beacon node.
package primitives

import "fmt"

// Slot represents a single slot.
type Slot uint64

// Add increases the slot by x.
func (s Slot) Add(x uint64) Slot {
	return s + Slot(x)
}

// Sub subtracts x from the slot, saturating at zero.
func (s Slot) Sub(x uint64) Slot {
	if uint64(s) < x {
		return 0
	}
	return s - Slot(x)
}

// SubSlot returns the distance between s and x, saturating at zero.
func (s Slot) SubSlot(x Slot) Slot {
	if s < x {
		return 0
	}
	return s - x
}

// Mod returns the result of s % x.
func (s Slot) Mod(x uint64) Slot {
	return s % Slot(x)
}

// String returns the decimal representation of the slot.
func (s Slot) String() string {
	return fmt.Sprintf("%d", uint64(s))
}
