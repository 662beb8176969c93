package field_params

const (
	RootLength                 = 32   // RootLength defines the byte length of a Merkle root.
	BLSSignatureLength         = 96   // BLSSignatureLength defines the byte length of a BLSSignature.
	BLSPubkeyLength            = 48   // BLSPubkeyLength defines the byte length of a BLSPubkey.
	ExecutionAddressLength     = 20   // ExecutionAddressLength defines the byte length of an execution address.
	KzgCommitmentLength        = 48   // KzgCommitmentLength defines the byte length of a KZG commitment.
	SyncCommitteeLength        = 512  // SYNC_COMMITTEE_SIZE
	MaxValidatorsPerCommittee  = 2048 // MAX_VALIDATORS_PER_COMMITTEE
	MaxAttestations            = 128  // MAX_ATTESTATIONS
	MaxAttesterSlashings       = 2    // MAX_ATTESTER_SLASHINGS
	MaxProposerSlashings       = 16   // MAX_PROPOSER_SLASHINGS
	MaxVoluntaryExits          = 16   // MAX_VOLUNTARY_EXITS
	MaxBlsToExecutionChanges   = 16   // MAX_BLS_TO_EXECUTION_CHANGES
	MaxBlobCommitmentsPerBlock = 4096 // MAX_BLOB_COMMITMENTS_PER_BLOCK
)
