package kv

import (
	"bytes"
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/db/filters"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/blocks"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-ingest/encoding/bytesutil"
	bolt "go.etcd.io/bbolt"
	"go.opencensus.io/trace"
)

var errInvalidSlotRange = errors.New("invalid end slot and start slot provided")

// archivedBlock is the value stored under a slot key. The root is kept next to the block so
// that index cleanup does not depend on recomputing it.
type archivedBlock struct {
	Root  [32]byte                  `json:"root"`
	Block *blocks.SignedBeaconBlock `json:"block"`
}

func slotKey(slot primitives.Slot) []byte {
	return bytesutil.Uint64ToBytesBigEndian(uint64(slot))
}

func parentIndexKey(parentRoot [32]byte, key []byte) []byte {
	return append(parentRoot[:], key...)
}

// SaveArchivedBlocks writes blocks to the archive in a single transaction. Blocks are keyed by
// slot, with the block root and parent root stored as secondary indices. A block already
// archived at the same slot is replaced along with its indices.
func (s *Store) SaveArchivedBlocks(ctx context.Context, blks []blocks.ROBlock) error {
	_, span := trace.StartSpan(ctx, "BeaconDB.SaveArchivedBlocks")
	defer span.End()

	encoded := make([][]byte, len(blks))
	for i, blk := range blks {
		if blk.IsNil() {
			return errNilBlock
		}
		enc, err := encode(&archivedBlock{Root: blk.Root(), Block: blk.SignedBeaconBlock})
		if err != nil {
			return errors.Wrapf(err, "could not encode block at slot %d", blk.Slot())
		}
		encoded[i] = enc
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		for i, blk := range blks {
			key := slotKey(blk.Slot())
			if err := deleteArchivedIndices(tx, key); err != nil {
				return err
			}
			root := blk.Root()
			if err := tx.Bucket(archivedBlocksBucket).Put(key, encoded[i]); err != nil {
				return err
			}
			if err := tx.Bucket(archivedRootIndexBucket).Put(root[:], key); err != nil {
				return err
			}
			if err := tx.Bucket(archivedParentRootIndexBucket).Put(parentIndexKey(blk.ParentRoot(), key), key); err != nil {
				return err
			}
		}
		return nil
	})
}

// ArchivedBlockBySlot returns the archived block at the given slot, or nil if there is none.
func (s *Store) ArchivedBlockBySlot(ctx context.Context, slot primitives.Slot) (*blocks.SignedBeaconBlock, error) {
	_, span := trace.StartSpan(ctx, "BeaconDB.ArchivedBlockBySlot")
	defer span.End()
	var blk *blocks.SignedBeaconBlock
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		blk, err = archivedBlockAtKey(tx, slotKey(slot))
		return err
	})
	return blk, err
}

// ArchivedBlockByRoot resolves the root index to a slot and returns the archived block, or nil.
func (s *Store) ArchivedBlockByRoot(ctx context.Context, root [32]byte) (*blocks.SignedBeaconBlock, error) {
	_, span := trace.StartSpan(ctx, "BeaconDB.ArchivedBlockByRoot")
	defer span.End()
	var blk *blocks.SignedBeaconBlock
	err := s.db.View(func(tx *bolt.Tx) error {
		key := tx.Bucket(archivedRootIndexBucket).Get(root[:])
		if key == nil {
			return nil
		}
		var err error
		blk, err = archivedBlockAtKey(tx, key)
		return err
	})
	return blk, err
}

// ArchivedBlocksByParentRoot returns every archived child of the given parent root in slot order.
func (s *Store) ArchivedBlocksByParentRoot(ctx context.Context, parentRoot [32]byte) ([]*blocks.SignedBeaconBlock, error) {
	_, span := trace.StartSpan(ctx, "BeaconDB.ArchivedBlocksByParentRoot")
	defer span.End()
	blks := make([]*blocks.SignedBeaconBlock, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(archivedParentRootIndexBucket).Cursor()
		prefix := parentRoot[:]
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			blk, err := archivedBlockAtKey(tx, v)
			if err != nil {
				return err
			}
			if blk != nil {
				blks = append(blks, blk)
			}
		}
		return nil
	})
	return blks, err
}

// ArchivedBlocks retrieves a list of archived blocks by filter criteria. Supported filters are a
// slot range [start, end) with an optional step, and a parent root.
func (s *Store) ArchivedBlocks(ctx context.Context, f *filters.QueryFilter) ([]*blocks.SignedBeaconBlock, error) {
	_, span := trace.StartSpan(ctx, "BeaconDB.ArchivedBlocks")
	defer span.End()
	if f == nil {
		return nil, errors.New("must specify a filter criteria for retrieving blocks")
	}

	start, end := primitives.Slot(0), primitives.Slot(0)
	hasEnd := false
	step := uint64(1)
	var parentRoot *[32]byte
	for k, v := range f.Filters() {
		switch k {
		case filters.StartSlot:
			start = v.(primitives.Slot)
		case filters.EndSlot:
			end = v.(primitives.Slot)
			hasEnd = true
		case filters.SlotStep:
			step = v.(uint64)
		case filters.ParentRoot:
			r := v.([32]byte)
			parentRoot = &r
		}
	}
	if hasEnd && end < start {
		return nil, errInvalidSlotRange
	}
	if step == 0 {
		step = 1
	}

	blks := make([]*blocks.SignedBeaconBlock, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(archivedBlocksBucket).Cursor()
		for k, v := c.Seek(slotKey(start)); k != nil; k, v = c.Next() {
			slot := primitives.Slot(bytesutil.BytesToUint64BigEndian(k))
			if hasEnd && slot >= end {
				break
			}
			if uint64(slot-start)%step != 0 {
				continue
			}
			a := &archivedBlock{}
			if err := decode(v, a); err != nil {
				return err
			}
			if err := blocks.BeaconBlockIsNil(a.Block); err != nil {
				return err
			}
			if parentRoot != nil && a.Block.Block.ParentRoot != *parentRoot {
				continue
			}
			blks = append(blks, a.Block)
		}
		return nil
	})
	return blks, err
}

// DeleteArchivedBlock removes the archived block at the given slot together with its indices.
func (s *Store) DeleteArchivedBlock(ctx context.Context, slot primitives.Slot) error {
	_, span := trace.StartSpan(ctx, "BeaconDB.DeleteArchivedBlock")
	defer span.End()
	return s.db.Update(func(tx *bolt.Tx) error {
		key := slotKey(slot)
		if err := deleteArchivedIndices(tx, key); err != nil {
			return err
		}
		return tx.Bucket(archivedBlocksBucket).Delete(key)
	})
}

func archivedBlockAtKey(tx *bolt.Tx, key []byte) (*blocks.SignedBeaconBlock, error) {
	a, err := archivedEntryAtKey(tx, key)
	if err != nil || a == nil {
		return nil, err
	}
	return a.Block, nil
}

func archivedEntryAtKey(tx *bolt.Tx, key []byte) (*archivedBlock, error) {
	enc := tx.Bucket(archivedBlocksBucket).Get(key)
	if enc == nil {
		return nil, nil
	}
	a := &archivedBlock{}
	if err := decode(enc, a); err != nil {
		return nil, err
	}
	if err := blocks.BeaconBlockIsNil(a.Block); err != nil {
		return nil, errors.Wrapf(err, "corrupt archived block at key %#x", key)
	}
	return a, nil
}

// deleteArchivedIndices removes the root and parent root indices of the block stored at key.
func deleteArchivedIndices(tx *bolt.Tx, key []byte) error {
	existing, err := archivedEntryAtKey(tx, key)
	if err != nil || existing == nil {
		return err
	}
	if err := tx.Bucket(archivedRootIndexBucket).Delete(existing.Root[:]); err != nil {
		return err
	}
	return tx.Bucket(archivedParentRootIndexBucket).Delete(parentIndexKey(existing.Block.Block.ParentRoot, key))
}
