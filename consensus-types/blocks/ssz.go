package blocks

import (
	ssz "github.com/ferranbt/fastssz"
	field_params "github.com/prysmaticlabs/beacon-ingest/config/fieldparams"
	"github.com/prysmaticlabs/go-bitfield"
)

// HashTreeRoot ssz hashes the Checkpoint object
func (c *Checkpoint) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(c)
}

// HashTreeRootWith ssz hashes the Checkpoint object with a hasher
func (c *Checkpoint) HashTreeRootWith(hh *ssz.Hasher) error {
	if c == nil {
		c = &Checkpoint{}
	}
	indx := hh.Index()

	// Field (0) 'Epoch'
	hh.PutUint64(uint64(c.Epoch))

	// Field (1) 'Root'
	hh.PutBytes(c.Root[:])

	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the AttestationData object
func (a *AttestationData) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(a)
}

// HashTreeRootWith ssz hashes the AttestationData object with a hasher
func (a *AttestationData) HashTreeRootWith(hh *ssz.Hasher) error {
	if a == nil {
		a = &AttestationData{}
	}
	indx := hh.Index()

	// Field (0) 'Slot'
	hh.PutUint64(uint64(a.Slot))

	// Field (1) 'CommitteeIndex'
	hh.PutUint64(uint64(a.CommitteeIndex))

	// Field (2) 'BeaconBlockRoot'
	hh.PutBytes(a.BeaconBlockRoot[:])

	// Field (3) 'Source'
	if err := a.Source.HashTreeRootWith(hh); err != nil {
		return err
	}

	// Field (4) 'Target'
	if err := a.Target.HashTreeRootWith(hh); err != nil {
		return err
	}

	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the Attestation object
func (a *Attestation) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(a)
}

// HashTreeRootWith ssz hashes the Attestation object with a hasher
func (a *Attestation) HashTreeRootWith(hh *ssz.Hasher) error {
	if a == nil {
		a = &Attestation{}
	}
	indx := hh.Index()

	// Field (0) 'AggregationBits'
	bits := a.AggregationBits
	if len(bits) == 0 {
		bits = bitfield.NewBitlist(0)
	}
	if bits.Len() > field_params.MaxValidatorsPerCommittee {
		return ssz.ErrIncorrectListSize
	}
	hh.PutBitlist(bits, field_params.MaxValidatorsPerCommittee)

	// Field (1) 'Data'
	if err := a.Data.HashTreeRootWith(hh); err != nil {
		return err
	}

	// Field (2) 'Signature'
	hh.PutBytes(a.Signature[:])

	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the IndexedAttestation object
func (a *IndexedAttestation) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(a)
}

// HashTreeRootWith ssz hashes the IndexedAttestation object with a hasher
func (a *IndexedAttestation) HashTreeRootWith(hh *ssz.Hasher) error {
	if a == nil {
		a = &IndexedAttestation{}
	}
	indx := hh.Index()

	// Field (0) 'AttestingIndices'
	{
		num := uint64(len(a.AttestingIndices))
		if num > field_params.MaxValidatorsPerCommittee {
			return ssz.ErrIncorrectListSize
		}
		subIndx := hh.Index()
		for _, i := range a.AttestingIndices {
			hh.AppendUint64(uint64(i))
		}
		hh.FillUpTo32()
		hh.MerkleizeWithMixin(subIndx, num, ssz.CalculateLimit(field_params.MaxValidatorsPerCommittee, num, 8))
	}

	// Field (1) 'Data'
	if err := a.Data.HashTreeRootWith(hh); err != nil {
		return err
	}

	// Field (2) 'Signature'
	hh.PutBytes(a.Signature[:])

	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the AttesterSlashing object
func (s *AttesterSlashing) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(s)
}

// HashTreeRootWith ssz hashes the AttesterSlashing object with a hasher
func (s *AttesterSlashing) HashTreeRootWith(hh *ssz.Hasher) error {
	if s == nil {
		s = &AttesterSlashing{}
	}
	indx := hh.Index()

	// Field (0) 'Attestation1'
	if err := s.Attestation1.HashTreeRootWith(hh); err != nil {
		return err
	}

	// Field (1) 'Attestation2'
	if err := s.Attestation2.HashTreeRootWith(hh); err != nil {
		return err
	}

	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the BeaconBlockHeader object
func (h *BeaconBlockHeader) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(h)
}

// HashTreeRootWith ssz hashes the BeaconBlockHeader object with a hasher
func (h *BeaconBlockHeader) HashTreeRootWith(hh *ssz.Hasher) error {
	if h == nil {
		h = &BeaconBlockHeader{}
	}
	indx := hh.Index()

	// Field (0) 'Slot'
	hh.PutUint64(uint64(h.Slot))

	// Field (1) 'ProposerIndex'
	hh.PutUint64(uint64(h.ProposerIndex))

	// Field (2) 'ParentRoot'
	hh.PutBytes(h.ParentRoot[:])

	// Field (3) 'StateRoot'
	hh.PutBytes(h.StateRoot[:])

	// Field (4) 'BodyRoot'
	hh.PutBytes(h.BodyRoot[:])

	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the SignedBeaconBlockHeader object
func (h *SignedBeaconBlockHeader) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(h)
}

// HashTreeRootWith ssz hashes the SignedBeaconBlockHeader object with a hasher
func (h *SignedBeaconBlockHeader) HashTreeRootWith(hh *ssz.Hasher) error {
	if h == nil {
		h = &SignedBeaconBlockHeader{}
	}
	indx := hh.Index()

	// Field (0) 'Header'
	if err := h.Header.HashTreeRootWith(hh); err != nil {
		return err
	}

	// Field (1) 'Signature'
	hh.PutBytes(h.Signature[:])

	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the ProposerSlashing object
func (s *ProposerSlashing) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(s)
}

// HashTreeRootWith ssz hashes the ProposerSlashing object with a hasher
func (s *ProposerSlashing) HashTreeRootWith(hh *ssz.Hasher) error {
	if s == nil {
		s = &ProposerSlashing{}
	}
	indx := hh.Index()

	// Field (0) 'Header1'
	if err := s.Header1.HashTreeRootWith(hh); err != nil {
		return err
	}

	// Field (1) 'Header2'
	if err := s.Header2.HashTreeRootWith(hh); err != nil {
		return err
	}

	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the SignedVoluntaryExit object
func (e *SignedVoluntaryExit) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(e)
}

// HashTreeRootWith ssz hashes the SignedVoluntaryExit object with a hasher
func (e *SignedVoluntaryExit) HashTreeRootWith(hh *ssz.Hasher) error {
	if e == nil {
		e = &SignedVoluntaryExit{}
	}
	exit := e.Exit
	if exit == nil {
		exit = &VoluntaryExit{}
	}
	indx := hh.Index()

	// Field (0) 'Exit'
	{
		subIndx := hh.Index()
		hh.PutUint64(uint64(exit.Epoch))
		hh.PutUint64(uint64(exit.ValidatorIndex))
		hh.Merkleize(subIndx)
	}

	// Field (1) 'Signature'
	hh.PutBytes(e.Signature[:])

	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the SignedBLSToExecutionChange object
func (c *SignedBLSToExecutionChange) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(c)
}

// HashTreeRootWith ssz hashes the SignedBLSToExecutionChange object with a hasher
func (c *SignedBLSToExecutionChange) HashTreeRootWith(hh *ssz.Hasher) error {
	if c == nil {
		c = &SignedBLSToExecutionChange{}
	}
	msg := c.Message
	if msg == nil {
		msg = &BLSToExecutionChange{}
	}
	indx := hh.Index()

	// Field (0) 'Message'
	{
		subIndx := hh.Index()
		hh.PutUint64(uint64(msg.ValidatorIndex))
		hh.PutBytes(msg.FromBLSPubkey[:])
		hh.PutBytes(msg.ToExecutionAddress[:])
		hh.Merkleize(subIndx)
	}

	// Field (1) 'Signature'
	hh.PutBytes(c.Signature[:])

	hh.Merkleize(indx)
	return nil
}

// HashTreeRootWith ssz hashes the SyncAggregate object with a hasher
func (s *SyncAggregate) HashTreeRootWith(hh *ssz.Hasher) error {
	if s == nil {
		s = &SyncAggregate{SyncCommitteeBits: bitfield.NewBitvector512()}
	}
	indx := hh.Index()

	// Field (0) 'SyncCommitteeBits'
	if len(s.SyncCommitteeBits) != field_params.SyncCommitteeLength/8 {
		return ssz.ErrBytesLength
	}
	hh.PutBytes(s.SyncCommitteeBits)

	// Field (1) 'SyncCommitteeSignature'
	hh.PutBytes(s.SyncCommitteeSignature[:])

	hh.Merkleize(indx)
	return nil
}

// HashTreeRootWith ssz hashes the ExecutionPayload object with a hasher
func (e *ExecutionPayload) HashTreeRootWith(hh *ssz.Hasher) error {
	if e == nil {
		e = &ExecutionPayload{}
	}
	indx := hh.Index()

	// Field (0) 'ParentHash'
	hh.PutBytes(e.ParentHash[:])

	// Field (1) 'BlockHash'
	hh.PutBytes(e.BlockHash[:])

	// Field (2) 'BlockNumber'
	hh.PutUint64(e.BlockNumber)

	// Field (3) 'Timestamp'
	hh.PutUint64(e.Timestamp)

	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the BeaconBlockBody object
func (b *BeaconBlockBody) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(b)
}

// HashTreeRootWith ssz hashes the BeaconBlockBody object with a hasher
func (b *BeaconBlockBody) HashTreeRootWith(hh *ssz.Hasher) (err error) {
	if b == nil {
		return errNilBlockBody
	}
	indx := hh.Index()

	// Field (0) 'RandaoReveal'
	hh.PutBytes(b.RandaoReveal[:])

	// Field (1) 'Graffiti'
	hh.PutBytes(b.Graffiti[:])

	// Field (2) 'ProposerSlashings'
	{
		subIndx := hh.Index()
		num := uint64(len(b.ProposerSlashings))
		if num > field_params.MaxProposerSlashings {
			err = ssz.ErrIncorrectListSize
			return
		}
		for _, elem := range b.ProposerSlashings {
			if err = elem.HashTreeRootWith(hh); err != nil {
				return
			}
		}
		hh.MerkleizeWithMixin(subIndx, num, field_params.MaxProposerSlashings)
	}

	// Field (3) 'AttesterSlashings'
	{
		subIndx := hh.Index()
		num := uint64(len(b.AttesterSlashings))
		if num > field_params.MaxAttesterSlashings {
			err = ssz.ErrIncorrectListSize
			return
		}
		for _, elem := range b.AttesterSlashings {
			if err = elem.HashTreeRootWith(hh); err != nil {
				return
			}
		}
		hh.MerkleizeWithMixin(subIndx, num, field_params.MaxAttesterSlashings)
	}

	// Field (4) 'Attestations'
	{
		subIndx := hh.Index()
		num := uint64(len(b.Attestations))
		if num > field_params.MaxAttestations {
			err = ssz.ErrIncorrectListSize
			return
		}
		for _, elem := range b.Attestations {
			if err = elem.HashTreeRootWith(hh); err != nil {
				return
			}
		}
		hh.MerkleizeWithMixin(subIndx, num, field_params.MaxAttestations)
	}

	// Field (5) 'VoluntaryExits'
	{
		subIndx := hh.Index()
		num := uint64(len(b.VoluntaryExits))
		if num > field_params.MaxVoluntaryExits {
			err = ssz.ErrIncorrectListSize
			return
		}
		for _, elem := range b.VoluntaryExits {
			if err = elem.HashTreeRootWith(hh); err != nil {
				return
			}
		}
		hh.MerkleizeWithMixin(subIndx, num, field_params.MaxVoluntaryExits)
	}

	// Field (6) 'SyncAggregate'
	if err = b.SyncAggregate.HashTreeRootWith(hh); err != nil {
		return
	}

	// Field (7) 'ExecutionPayload'
	if err = b.ExecutionPayload.HashTreeRootWith(hh); err != nil {
		return
	}

	// Field (8) 'BLSToExecutionChanges'
	{
		subIndx := hh.Index()
		num := uint64(len(b.BLSToExecutionChanges))
		if num > field_params.MaxBlsToExecutionChanges {
			err = ssz.ErrIncorrectListSize
			return
		}
		for _, elem := range b.BLSToExecutionChanges {
			if err = elem.HashTreeRootWith(hh); err != nil {
				return
			}
		}
		hh.MerkleizeWithMixin(subIndx, num, field_params.MaxBlsToExecutionChanges)
	}

	// Field (9) 'BlobKzgCommitments'
	{
		subIndx := hh.Index()
		num := uint64(len(b.BlobKzgCommitments))
		if num > field_params.MaxBlobCommitmentsPerBlock {
			err = ssz.ErrIncorrectListSize
			return
		}
		for _, c := range b.BlobKzgCommitments {
			hh.PutBytes(c[:])
		}
		hh.MerkleizeWithMixin(subIndx, num, field_params.MaxBlobCommitmentsPerBlock)
	}

	hh.Merkleize(indx)
	return
}

// HashTreeRoot ssz hashes the BeaconBlock object
func (b *BeaconBlock) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(b)
}

// HashTreeRootWith ssz hashes the BeaconBlock object with a hasher
func (b *BeaconBlock) HashTreeRootWith(hh *ssz.Hasher) error {
	if b == nil {
		return errNilBlock
	}
	indx := hh.Index()

	// Field (0) 'Slot'
	hh.PutUint64(uint64(b.Slot))

	// Field (1) 'ProposerIndex'
	hh.PutUint64(uint64(b.ProposerIndex))

	// Field (2) 'ParentRoot'
	hh.PutBytes(b.ParentRoot[:])

	// Field (3) 'StateRoot'
	hh.PutBytes(b.StateRoot[:])

	// Field (4) 'Body'
	if err := b.Body.HashTreeRootWith(hh); err != nil {
		return err
	}

	hh.Merkleize(indx)
	return nil
}
