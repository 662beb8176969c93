package node

import (
	"context"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/db"
	forkchoicetypes "github.com/prysmaticlabs/beacon-ingest/beacon-chain/forkchoice/types"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/state"
	state_native "github.com/prysmaticlabs/beacon-ingest/beacon-chain/state/state-native"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/state/stategen"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/blocks"
	"github.com/prysmaticlabs/beacon-ingest/time/slots"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Anchor is the block the node starts from together with its post-state.
type Anchor struct {
	Block blocks.ROBlock
	State state.BeaconState
}

// GenesisAnchor returns an empty block at slot 0 with an empty state.
func GenesisAnchor() (*Anchor, error) {
	b := &blocks.SignedBeaconBlock{Block: &blocks.BeaconBlock{Body: &blocks.BeaconBlockBody{}}}
	blk, err := blocks.NewROBlock(b)
	if err != nil {
		return nil, err
	}
	st, err := state_native.InitializeFromFields(&state_native.Fields{})
	if err != nil {
		return nil, err
	}
	return &Anchor{Block: blk, State: st}, nil
}

// LoadAnchor reads a JSON encoded signed block and its JSON encoded post-state.
func LoadAnchor(blockPath, statePath string) (*Anchor, error) {
	enc, err := os.ReadFile(blockPath) // #nosec G304
	if err != nil {
		return nil, errors.Wrap(err, "could not read anchor block")
	}
	b := &blocks.SignedBeaconBlock{}
	if err := json.Unmarshal(enc, b); err != nil {
		return nil, errors.Wrap(err, "could not decode anchor block")
	}
	blk, err := blocks.NewROBlock(b)
	if err != nil {
		return nil, errors.Wrap(err, "invalid anchor block")
	}

	enc, err = os.ReadFile(statePath) // #nosec G304
	if err != nil {
		return nil, errors.Wrap(err, "could not read anchor state")
	}
	fields := &state_native.Fields{}
	if err := json.Unmarshal(enc, fields); err != nil {
		return nil, errors.Wrap(err, "could not decode anchor state")
	}
	if fields.Slot < blk.Slot() {
		return nil, errors.Errorf("anchor state slot %d is before the anchor block slot %d", fields.Slot, blk.Slot())
	}
	st, err := state_native.InitializeFromFields(fields)
	if err != nil {
		return nil, err
	}
	return &Anchor{Block: blk, State: st}, nil
}

// protoBlock is the fork choice summary of the anchor. The anchor is its own
// justified and finalized checkpoint.
func (a *Anchor) protoBlock() *forkchoicetypes.ProtoBlock {
	root := a.Block.Root()
	epoch := slots.ToEpoch(a.Block.Slot())
	status := forkchoicetypes.PreMerge
	hash := a.Block.Block.ExecutionBlockHash()
	if hash != [32]byte{} {
		status = forkchoicetypes.Valid
	}
	return &forkchoicetypes.ProtoBlock{
		Slot:                      a.Block.Slot(),
		BlockRoot:                 root,
		ParentRoot:                a.Block.ParentRoot(),
		StateRoot:                 a.Block.Block.StateRoot,
		TargetRoot:                root,
		JustifiedEpoch:            epoch,
		JustifiedRoot:             root,
		FinalizedEpoch:            epoch,
		FinalizedRoot:             root,
		ExecutionPayloadBlockHash: hash,
		ExecutionStatus:           status,
		DataAvailabilityStatus:    forkchoicetypes.OutOfRange,
	}
}

// save writes the anchor as head, justified and finalized checkpoint, and caches
// its state.
func (a *Anchor) save(ctx context.Context, d db.HeadAccessDatabase, sg stategen.StateManager) error {
	root := a.Block.Root()
	cp := &blocks.Checkpoint{Epoch: slots.ToEpoch(a.Block.Slot()), Root: root}
	if err := d.SaveBlock(ctx, a.Block); err != nil {
		return errors.Wrap(err, "could not save anchor block")
	}
	if err := d.SaveHeadBlockRoot(ctx, root); err != nil {
		return errors.Wrap(err, "could not save anchor head root")
	}
	if err := d.SaveJustifiedCheckpoint(ctx, cp); err != nil {
		return errors.Wrap(err, "could not save anchor justified checkpoint")
	}
	if err := d.SaveFinalizedCheckpoint(ctx, cp); err != nil {
		return errors.Wrap(err, "could not save anchor finalized checkpoint")
	}
	if err := sg.ProcessState(ctx, root, a.State); err != nil {
		return err
	}
	sg.UpdateHeadState(root, a.State)
	return sg.AddCheckpointState(cp, a.State)
}
