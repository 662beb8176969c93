// Package blocks defines the beacon block containers consumed by the import
// pipeline and range sync, together with their SSZ hash tree roots.
package blocks

import (
	"github.com/pkg/errors"
	field_params "github.com/prysmaticlabs/beacon-ingest/config/fieldparams"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
	"github.com/prysmaticlabs/go-bitfield"
)

var (
	// ErrNilSignedBeaconBlock is returned when a nil signed block is received.
	ErrNilSignedBeaconBlock = errors.New("signed beacon block can't be nil")
	errNilBlock             = errors.New("received nil beacon block")
	errNilBlockBody         = errors.New("received nil beacon block body")
)

// BlockSource tags where a block entered the node.
type BlockSource int

const (
	SourceGossip BlockSource = iota
	SourceRangeSync
	SourceUnknownBlockSync
	SourceAPI
	SourceBackfill
)

func (s BlockSource) String() string {
	switch s {
	case SourceGossip:
		return "gossip"
	case SourceRangeSync:
		return "range_sync"
	case SourceUnknownBlockSync:
		return "unknown_block_sync"
	case SourceAPI:
		return "api"
	case SourceBackfill:
		return "backfill"
	default:
		return "unknown"
	}
}

// Checkpoint is an (epoch, root) pair.
type Checkpoint struct {
	Epoch primitives.Epoch `json:"epoch"`
	Root  [32]byte         `json:"root"`
}

// Copy returns a copy of the checkpoint.
func (c *Checkpoint) Copy() *Checkpoint {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// AttestationData is the vote carried by an attestation.
type AttestationData struct {
	Slot            primitives.Slot           `json:"slot"`
	CommitteeIndex  primitives.CommitteeIndex `json:"index"`
	BeaconBlockRoot [32]byte                  `json:"beacon_block_root"`
	Source          *Checkpoint               `json:"source"`
	Target          *Checkpoint               `json:"target"`
}

// Attestation is an aggregated vote as included in a block body.
type Attestation struct {
	AggregationBits bitfield.Bitlist                      `json:"aggregation_bits"`
	Data            *AttestationData                      `json:"data"`
	Signature       [field_params.BLSSignatureLength]byte `json:"signature"`
}

// IndexedAttestation is an attestation with its aggregation bits resolved to validator indices.
type IndexedAttestation struct {
	AttestingIndices []primitives.ValidatorIndex           `json:"attesting_indices"`
	Data             *AttestationData                      `json:"data"`
	Signature        [field_params.BLSSignatureLength]byte `json:"signature"`
}

// AttesterSlashing is a pair of conflicting indexed attestations.
type AttesterSlashing struct {
	Attestation1 *IndexedAttestation `json:"attestation_1"`
	Attestation2 *IndexedAttestation `json:"attestation_2"`
}

// BeaconBlockHeader summarizes a block with its body root.
type BeaconBlockHeader struct {
	Slot          primitives.Slot           `json:"slot"`
	ProposerIndex primitives.ValidatorIndex `json:"proposer_index"`
	ParentRoot    [32]byte                  `json:"parent_root"`
	StateRoot     [32]byte                  `json:"state_root"`
	BodyRoot      [32]byte                  `json:"body_root"`
}

// SignedBeaconBlockHeader is a block header with its proposer signature.
type SignedBeaconBlockHeader struct {
	Header    *BeaconBlockHeader                    `json:"message"`
	Signature [field_params.BLSSignatureLength]byte `json:"signature"`
}

// ProposerSlashing is a pair of conflicting signed block headers.
type ProposerSlashing struct {
	Header1 *SignedBeaconBlockHeader `json:"signed_header_1"`
	Header2 *SignedBeaconBlockHeader `json:"signed_header_2"`
}

// VoluntaryExit is a validator's request to exit.
type VoluntaryExit struct {
	Epoch          primitives.Epoch          `json:"epoch"`
	ValidatorIndex primitives.ValidatorIndex `json:"validator_index"`
}

// SignedVoluntaryExit is a voluntary exit with its signature.
type SignedVoluntaryExit struct {
	Exit      *VoluntaryExit                        `json:"message"`
	Signature [field_params.BLSSignatureLength]byte `json:"signature"`
}

// BLSToExecutionChange moves a validator's withdrawal credentials to an execution address.
type BLSToExecutionChange struct {
	ValidatorIndex     primitives.ValidatorIndex                 `json:"validator_index"`
	FromBLSPubkey      [field_params.BLSPubkeyLength]byte        `json:"from_bls_pubkey"`
	ToExecutionAddress [field_params.ExecutionAddressLength]byte `json:"to_execution_address"`
}

// SignedBLSToExecutionChange is a BLS to execution change with its signature.
type SignedBLSToExecutionChange struct {
	Message   *BLSToExecutionChange                 `json:"message"`
	Signature [field_params.BLSSignatureLength]byte `json:"signature"`
}

// SyncAggregate carries the sync committee participation of a block.
type SyncAggregate struct {
	SyncCommitteeBits      bitfield.Bitvector512                 `json:"sync_committee_bits"`
	SyncCommitteeSignature [field_params.BLSSignatureLength]byte `json:"sync_committee_signature"`
}

// ExecutionPayload is the subset of the execution payload the import pipeline
// and the engine notifications depend on.
type ExecutionPayload struct {
	ParentHash  [32]byte `json:"parent_hash"`
	BlockHash   [32]byte `json:"block_hash"`
	BlockNumber uint64   `json:"block_number"`
	Timestamp   uint64   `json:"timestamp"`
}

// BeaconBlockBody holds the operations of a block.
type BeaconBlockBody struct {
	RandaoReveal          [field_params.BLSSignatureLength]byte    `json:"randao_reveal"`
	Graffiti              [32]byte                                 `json:"graffiti"`
	ProposerSlashings     []*ProposerSlashing                      `json:"proposer_slashings"`
	AttesterSlashings     []*AttesterSlashing                      `json:"attester_slashings"`
	Attestations          []*Attestation                           `json:"attestations"`
	VoluntaryExits        []*SignedVoluntaryExit                   `json:"voluntary_exits"`
	SyncAggregate         *SyncAggregate                           `json:"sync_aggregate,omitempty"`
	ExecutionPayload      *ExecutionPayload                        `json:"execution_payload,omitempty"`
	BLSToExecutionChanges []*SignedBLSToExecutionChange            `json:"bls_to_execution_changes"`
	BlobKzgCommitments    [][field_params.KzgCommitmentLength]byte `json:"blob_kzg_commitments"`
}

// BeaconBlock is the unsigned block.
type BeaconBlock struct {
	Slot          primitives.Slot           `json:"slot"`
	ProposerIndex primitives.ValidatorIndex `json:"proposer_index"`
	ParentRoot    [32]byte                  `json:"parent_root"`
	StateRoot     [32]byte                  `json:"state_root"`
	Body          *BeaconBlockBody          `json:"body"`
}

// SignedBeaconBlock is a block with its proposer signature. It is immutable
// once handed to the import pipeline.
type SignedBeaconBlock struct {
	Block     *BeaconBlock                          `json:"message"`
	Signature [field_params.BLSSignatureLength]byte `json:"signature"`
}

// BeaconBlockIsNil checks if any composite field of input signed beacon block is nil.
// Access to these nil fields will result in run time panic,
// it is recommended to run these checks as first line of defense.
func BeaconBlockIsNil(b *SignedBeaconBlock) error {
	if b == nil {
		return ErrNilSignedBeaconBlock
	}
	if b.Block == nil {
		return errNilBlock
	}
	if b.Block.Body == nil {
		return errNilBlockBody
	}
	return nil
}

// Header returns the signed header of the block.
func (b *SignedBeaconBlock) Header() (*SignedBeaconBlockHeader, error) {
	if err := BeaconBlockIsNil(b); err != nil {
		return nil, err
	}
	bodyRoot, err := b.Block.Body.HashTreeRoot()
	if err != nil {
		return nil, errors.Wrap(err, "could not compute body root")
	}
	return &SignedBeaconBlockHeader{
		Header: &BeaconBlockHeader{
			Slot:          b.Block.Slot,
			ProposerIndex: b.Block.ProposerIndex,
			ParentRoot:    b.Block.ParentRoot,
			StateRoot:     b.Block.StateRoot,
			BodyRoot:      bodyRoot,
		},
		Signature: b.Signature,
	}, nil
}

// ExecutionBlockHash returns the execution payload block hash or the zero hash
// for blocks without a payload.
func (b *BeaconBlock) ExecutionBlockHash() [32]byte {
	if b == nil || b.Body == nil || b.Body.ExecutionPayload == nil {
		return [32]byte{}
	}
	return b.Body.ExecutionPayload.BlockHash
}
