package kv

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/blocks"
	"github.com/prysmaticlabs/beacon-ingest/encoding/bytesutil"
	bolt "go.etcd.io/bbolt"
	"go.opencensus.io/trace"
)

// Block retrieval by root.
func (s *Store) Block(ctx context.Context, blockRoot [32]byte) (*blocks.SignedBeaconBlock, error) {
	ctx, span := trace.StartSpan(ctx, "BeaconDB.Block")
	defer span.End()
	// Return block from cache if it exists.
	if v, ok := s.blockCache.Get(string(blockRoot[:])); v != nil && ok {
		return v.(*blocks.SignedBeaconBlock), nil
	}
	var blk *blocks.SignedBeaconBlock
	err := s.db.View(func(tx *bolt.Tx) error {
		enc := tx.Bucket(blocksBucket).Get(blockRoot[:])
		if enc == nil {
			return nil
		}
		blk = &blocks.SignedBeaconBlock{}
		return decode(enc, blk)
	})
	return blk, err
}

// HasBlock checks if a block by root exists in the db.
func (s *Store) HasBlock(ctx context.Context, blockRoot [32]byte) bool {
	_, span := trace.StartSpan(ctx, "BeaconDB.HasBlock")
	defer span.End()
	if v, ok := s.blockCache.Get(string(blockRoot[:])); v != nil && ok {
		return true
	}
	exists := false
	if err := s.db.View(func(tx *bolt.Tx) error {
		exists = tx.Bucket(blocksBucket).Get(blockRoot[:]) != nil
		return nil
	}); err != nil { // This view never returns an error, but we'll handle anyway for sanity.
		panic(err)
	}
	return exists
}

// SaveBlock to the db.
func (s *Store) SaveBlock(ctx context.Context, blk blocks.ROBlock) error {
	ctx, span := trace.StartSpan(ctx, "BeaconDB.SaveBlock")
	defer span.End()
	return s.SaveBlocks(ctx, []blocks.ROBlock{blk})
}

// SaveBlocks via bulk updates to the db. All blocks are written in a single
// transaction.
func (s *Store) SaveBlocks(ctx context.Context, blks []blocks.ROBlock) error {
	_, span := trace.StartSpan(ctx, "BeaconDB.SaveBlocks")
	defer span.End()

	encoded := make([][]byte, len(blks))
	for i, blk := range blks {
		if blk.IsNil() {
			return errNilBlock
		}
		enc, err := encode(blk.SignedBeaconBlock)
		if err != nil {
			return errors.Wrapf(err, "could not encode block at slot %d", blk.Slot())
		}
		encoded[i] = enc
	}
	if err := s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(blocksBucket)
		for i, blk := range blks {
			root := blk.Root()
			if err := bkt.Put(root[:], encoded[i]); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}
	for _, blk := range blks {
		root := blk.Root()
		s.blockCache.Set(string(root[:]), blk.SignedBeaconBlock, 1)
	}
	return nil
}

// DeleteBlock from the db. Deleting the head block root is not allowed.
func (s *Store) DeleteBlock(ctx context.Context, root [32]byte) error {
	_, span := trace.StartSpan(ctx, "BeaconDB.DeleteBlock")
	defer span.End()

	return s.db.Update(func(tx *bolt.Tx) error {
		if head := tx.Bucket(chainMetadataBucket).Get(headBlockRootKey); head != nil && bytesutil.ToBytes32(head) == root {
			return errors.New("cannot delete the head block")
		}
		s.blockCache.Del(string(root[:]))
		return tx.Bucket(blocksBucket).Delete(root[:])
	})
}

// HeadBlockRoot returns the latest canonical head root saved to the db.
func (s *Store) HeadBlockRoot(ctx context.Context) ([32]byte, error) {
	_, span := trace.StartSpan(ctx, "BeaconDB.HeadBlockRoot")
	defer span.End()
	var root [32]byte
	err := s.db.View(func(tx *bolt.Tx) error {
		enc := tx.Bucket(chainMetadataBucket).Get(headBlockRootKey)
		if enc == nil {
			return ErrNotFoundHeadRoot
		}
		root = bytesutil.ToBytes32(enc)
		return nil
	})
	return root, err
}

// SaveHeadBlockRoot to the db.
func (s *Store) SaveHeadBlockRoot(ctx context.Context, blockRoot [32]byte) error {
	_, span := trace.StartSpan(ctx, "BeaconDB.SaveHeadBlockRoot")
	defer span.End()
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(chainMetadataBucket).Put(headBlockRootKey, blockRoot[:])
	})
}
