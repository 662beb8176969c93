package blocks

import (
	"github.com/minio/sha256-simd"
	field_params "github.com/prysmaticlabs/beacon-ingest/config/fieldparams"
	"github.com/prysmaticlabs/beacon-ingest/config/params"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
)

// BlobSidecar is the availability record of one blob committed to by a block.
// Blob contents are not retained by the import pipeline.
type BlobSidecar struct {
	Index             uint64                                 `json:"index"`
	KzgCommitment     [field_params.KzgCommitmentLength]byte `json:"kzg_commitment"`
	SignedBlockHeader *SignedBeaconBlockHeader               `json:"signed_block_header"`
}

// Slot of the block the sidecar belongs to.
func (b *BlobSidecar) Slot() primitives.Slot {
	if b == nil || b.SignedBlockHeader == nil || b.SignedBlockHeader.Header == nil {
		return 0
	}
	return b.SignedBlockHeader.Header.Slot
}

// BlockRoot computes the root of the header the sidecar belongs to.
func (b *BlobSidecar) BlockRoot() ([32]byte, error) {
	if b == nil || b.SignedBlockHeader == nil {
		return [32]byte{}, errNilBlock
	}
	return b.SignedBlockHeader.Header.HashTreeRoot()
}

// KzgToVersionedHash computes the versioned hash of a KZG commitment:
// the version byte followed by the last 31 bytes of sha256(commitment).
func KzgToVersionedHash(commitment []byte) [32]byte {
	versionedHash := sha256.Sum256(commitment)
	versionedHash[0] = params.BeaconConfig().VersionedHashVersionKzg
	return versionedHash
}
