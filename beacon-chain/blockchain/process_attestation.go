package blockchain

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/cache"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/forkchoice"
	"github.com/prysmaticlabs/beacon-ingest/config/params"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/blocks"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-ingest/time/slots"
	"github.com/sirupsen/logrus"
)

var errNilAttestation = errors.New("nil attestation")

type attestationErrorCount struct {
	err   error
	count int
}

// importBlockAttestations applies the attestations of a block to fork choice. A block
// at epoch X carries attestations for X and X-1, so blocks older than the attestation
// epoch limit carry nothing fork choice would accept. Rejections with a known
// attestation code are logged once per code.
func (s *Service) importBlockAttestations(ctx context.Context, vb *VerifiedBlock, mode ImportAttestationsMode, currentEpoch primitives.Epoch) {
	blk := vb.Block
	blockEpoch := slots.ToEpoch(blk.Slot())
	limit := params.BeaconConfig().ForkChoiceAttEpochLimit
	if mode != ImportAttestationsForce && (mode == ImportAttestationsSkip || blockEpoch+limit < currentEpoch) {
		return
	}

	force := mode == ImportAttestationsForce
	invalidByCode := make(map[forkchoice.AttestationCode]*attestationErrorCount)
	var codes []forkchoice.AttestationCode
	for _, att := range blk.Body().Attestations {
		err := s.importBlockAttestation(ctx, vb, att, force, currentEpoch)
		if err == nil {
			continue
		}
		code, ok := forkchoice.InvalidAttestationCode(err)
		if !ok {
			log.WithError(err).WithField("slot", blk.Slot()).Warn("Could not process attestation from block")
			continue
		}
		if c, ok := invalidByCode[code]; ok {
			c.count++
			continue
		}
		invalidByCode[code] = &attestationErrorCount{err: err, count: 1}
		codes = append(codes, code)
	}
	for _, code := range codes {
		c := invalidByCode[code]
		attestationImportErrors.WithLabelValues(code.String()).Add(float64(c.count))
		log.WithError(c.err).WithFields(logrus.Fields{
			"slot":                blk.Slot(),
			"erroredAttestations": c.count,
		}).Warn("Could not process attestations from block")
	}
}

func (s *Service) importBlockAttestation(
	ctx context.Context,
	vb *VerifiedBlock,
	att *blocks.Attestation,
	force bool,
	currentEpoch primitives.Epoch,
) error {
	if att == nil || att.Data == nil || att.Data.Target == nil {
		return errNilAttestation
	}
	indexed, err := indexedAttestation(vb.PostState, att)
	if err != nil {
		return err
	}
	dataRoot, err := att.Data.HashTreeRoot()
	if err != nil {
		return errors.Wrap(err, "could not hash attestation data")
	}
	target := att.Data.Target
	s.seenAggregatedAttestations.Add(target.Epoch, dataRoot, cache.AggregationInfo{
		AggregationBits: att.AggregationBits,
		TrueBitCount:    uint64(len(indexed.AttestingIndices)),
	}, true)

	// Fork choice rejects targets outside the current and previous epoch unless forced.
	limit := params.BeaconConfig().ForkChoiceAttEpochLimit
	if force || (target.Epoch <= currentEpoch && target.Epoch+limit >= currentEpoch) {
		if err := s.cfg.ForkChoiceStore.OnAttestation(ctx, indexed, dataRoot, force); err != nil {
			return err
		}
	}
	s.seenBlockAttesters.AddIndices(slots.ToEpoch(vb.Block.Slot()), indexed.AttestingIndices)
	return nil
}

// importBlockAttesterSlashings applies the attester slashings of a block to fork choice.
// The window is wider than the attestation window: a slashed validator keeps attesting
// validly until its exit epoch, which lies MaxSeedLookahead+1 epochs ahead.
func (s *Service) importBlockAttesterSlashings(vb *VerifiedBlock, mode ImportAttestationsMode, currentEpoch primitives.Epoch) {
	blk := vb.Block
	cfg := params.BeaconConfig()
	window := cfg.ForkChoiceAttEpochLimit + 1 + cfg.MaxSeedLookahead
	if mode != ImportAttestationsForce && (mode == ImportAttestationsSkip || slots.ToEpoch(blk.Slot())+window < currentEpoch) {
		return
	}
	for _, slashing := range blk.Body().AttesterSlashings {
		if err := s.cfg.ForkChoiceStore.OnAttesterSlashing(slashing); err != nil {
			log.WithError(err).WithField("slot", blk.Slot()).Warn("Could not process attester slashing from block")
		}
	}
}
