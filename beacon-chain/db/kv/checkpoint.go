package kv

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/blocks"
	bolt "go.etcd.io/bbolt"
	"go.opencensus.io/trace"
)

var errMissingParentBlockInDatabase = errors.New("missing block in database")

// JustifiedCheckpoint returns the latest justified checkpoint in beacon chain.
func (s *Store) JustifiedCheckpoint(ctx context.Context) (*blocks.Checkpoint, error) {
	_, span := trace.StartSpan(ctx, "BeaconDB.JustifiedCheckpoint")
	defer span.End()
	return s.checkpoint(justifiedCheckpointKey)
}

// FinalizedCheckpoint returns the latest finalized checkpoint in beacon chain.
func (s *Store) FinalizedCheckpoint(ctx context.Context) (*blocks.Checkpoint, error) {
	_, span := trace.StartSpan(ctx, "BeaconDB.FinalizedCheckpoint")
	defer span.End()
	return s.checkpoint(finalizedCheckpointKey)
}

// SaveJustifiedCheckpoint saves justified checkpoint in beacon chain.
func (s *Store) SaveJustifiedCheckpoint(ctx context.Context, checkpoint *blocks.Checkpoint) error {
	_, span := trace.StartSpan(ctx, "BeaconDB.SaveJustifiedCheckpoint")
	defer span.End()
	return s.saveCheckpoint(justifiedCheckpointKey, checkpoint, false)
}

// SaveFinalizedCheckpoint saves finalized checkpoint in beacon chain. The
// checkpoint root must be a known block, or the genesis zero root.
func (s *Store) SaveFinalizedCheckpoint(ctx context.Context, checkpoint *blocks.Checkpoint) error {
	_, span := trace.StartSpan(ctx, "BeaconDB.SaveFinalizedCheckpoint")
	defer span.End()
	return s.saveCheckpoint(finalizedCheckpointKey, checkpoint, true)
}

func (s *Store) checkpoint(key []byte) (*blocks.Checkpoint, error) {
	var checkpoint *blocks.Checkpoint
	err := s.db.View(func(tx *bolt.Tx) error {
		enc := tx.Bucket(checkpointBucket).Get(key)
		if enc == nil {
			checkpoint = &blocks.Checkpoint{}
			return nil
		}
		checkpoint = &blocks.Checkpoint{}
		return decode(enc, checkpoint)
	})
	return checkpoint, err
}

func (s *Store) saveCheckpoint(key []byte, checkpoint *blocks.Checkpoint, requireBlock bool) error {
	enc, err := encode(checkpoint)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if requireBlock && checkpoint.Root != [32]byte{} {
			hot := tx.Bucket(blocksBucket).Get(checkpoint.Root[:]) != nil
			archived := tx.Bucket(archivedRootIndexBucket).Get(checkpoint.Root[:]) != nil
			if !hot && !archived {
				return errMissingParentBlockInDatabase
			}
		}
		return tx.Bucket(checkpointBucket).Put(key, enc)
	})
}
