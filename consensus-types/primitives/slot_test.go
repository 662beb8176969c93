package primitives_test

import (
	"testing"

	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-ingest/testing/assert"
)

func TestSlot_Sub(t *testing.T) {
	tests := []struct {
		slot primitives.Slot
		x    uint64
		want primitives.Slot
	}{
		{slot: 10, x: 3, want: 7},
		{slot: 3, x: 3, want: 0},
		{slot: 2, x: 3, want: 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.slot.Sub(tt.x))
	}
}

func TestSlot_SubSlot(t *testing.T) {
	assert.Equal(t, primitives.Slot(5), primitives.Slot(69).SubSlot(64))
	assert.Equal(t, primitives.Slot(0), primitives.Slot(1).SubSlot(64))
}

func TestEpoch_Sub(t *testing.T) {
	assert.Equal(t, primitives.Epoch(0), primitives.Epoch(1).Sub(2))
	assert.Equal(t, primitives.Epoch(4), primitives.Epoch(6).Sub(2))
	assert.Equal(t, primitives.Epoch(6), primitives.MaxEpoch(6, 2))
}
