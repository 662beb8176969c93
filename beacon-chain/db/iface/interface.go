// Package iface defines the actual database interface used
// by the beacon-ingest node, also containing useful, scoped interfaces such as
// a ReadOnlyDatabase.
package iface

import (
	"context"
	"io"

	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/db/filters"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/blocks"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
)

// ReadOnlyDatabase defines a struct which only has read access to database methods.
type ReadOnlyDatabase interface {
	// Block related methods.
	Block(ctx context.Context, blockRoot [32]byte) (*blocks.SignedBeaconBlock, error)
	HasBlock(ctx context.Context, blockRoot [32]byte) bool
	HeadBlockRoot(ctx context.Context) ([32]byte, error)
	// Block archive, keyed by slot.
	ArchivedBlockBySlot(ctx context.Context, slot primitives.Slot) (*blocks.SignedBeaconBlock, error)
	ArchivedBlockByRoot(ctx context.Context, root [32]byte) (*blocks.SignedBeaconBlock, error)
	ArchivedBlocksByParentRoot(ctx context.Context, parentRoot [32]byte) ([]*blocks.SignedBeaconBlock, error)
	ArchivedBlocks(ctx context.Context, f *filters.QueryFilter) ([]*blocks.SignedBeaconBlock, error)
	// Checkpoint operations.
	JustifiedCheckpoint(ctx context.Context) (*blocks.Checkpoint, error)
	FinalizedCheckpoint(ctx context.Context) (*blocks.Checkpoint, error)
}

// NoHeadAccessDatabase defines a struct without access to chain head data.
type NoHeadAccessDatabase interface {
	ReadOnlyDatabase

	// Block related methods.
	SaveBlock(ctx context.Context, block blocks.ROBlock) error
	SaveBlocks(ctx context.Context, blocks []blocks.ROBlock) error
	DeleteBlock(ctx context.Context, root [32]byte) error
	// Block archive.
	SaveArchivedBlocks(ctx context.Context, blocks []blocks.ROBlock) error
	DeleteArchivedBlock(ctx context.Context, slot primitives.Slot) error
	// Checkpoint operations.
	SaveJustifiedCheckpoint(ctx context.Context, checkpoint *blocks.Checkpoint) error
	SaveFinalizedCheckpoint(ctx context.Context, checkpoint *blocks.Checkpoint) error
}

// HeadAccessDatabase defines a struct with access to reading chain head data.
type HeadAccessDatabase interface {
	NoHeadAccessDatabase

	SaveHeadBlockRoot(ctx context.Context, blockRoot [32]byte) error
}

// Database interface with full access.
type Database interface {
	io.Closer
	HeadAccessDatabase

	DatabasePath() string
	ClearDB() error
}
