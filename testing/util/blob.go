package util

import (
	"testing"

	"github.com/prysmaticlabs/beacon-ingest/consensus-types/blocks"
	"github.com/prysmaticlabs/beacon-ingest/testing/require"
)

// NewBlobSidecars creates one sidecar per KZG commitment of the block.
func NewBlobSidecars(t testing.TB, b blocks.ROBlock) []*blocks.BlobSidecar {
	header, err := b.Header()
	require.NoError(t, err)
	sidecars := make([]*blocks.BlobSidecar, len(b.Body().BlobKzgCommitments))
	for i, c := range b.Body().BlobKzgCommitments {
		sidecars[i] = &blocks.BlobSidecar{
			Index:             uint64(i),
			KzgCommitment:     c,
			SignedBlockHeader: header,
		}
	}
	return sidecars
}
