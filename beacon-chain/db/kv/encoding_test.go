package kv

import (
	"testing"

	"github.com/prysmaticlabs/beacon-ingest/consensus-types/blocks"
	"github.com/prysmaticlabs/beacon-ingest/testing/require"
)

func Test_encode_decode(t *testing.T) {
	cp := &blocks.Checkpoint{Epoch: 3, Root: [32]byte{'a'}}
	enc, err := encode(cp)
	require.NoError(t, err)
	got := &blocks.Checkpoint{}
	require.NoError(t, decode(enc, got))
	require.DeepEqual(t, cp, got)
}

func Test_encode_handlesNilFromFunction(t *testing.T) {
	foo := func() *blocks.Checkpoint {
		return nil
	}
	_, err := encode(foo())
	require.ErrorContains(t, "cannot encode nil message", err)
}
