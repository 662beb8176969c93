package kv

// The schema will define how to store and retrieve data from the db.
// Archived blocks are keyed by their big-endian encoded slot so that
// lexicographic key order matches numeric slot order for range scans.
// Secondary indices map a block root to its slot key, and a
// parent root || slot key to nothing, which allows prefix scans for the
// children of a given parent.
var (
	blocksBucket                  = []byte("blocks")
	archivedBlocksBucket          = []byte("archived-blocks")
	archivedRootIndexBucket       = []byte("archived-block-root-indices")
	archivedParentRootIndexBucket = []byte("archived-block-parent-root-indices")
	checkpointBucket              = []byte("check-point")
	chainMetadataBucket           = []byte("chain-metadata")

	// Specific item keys.
	headBlockRootKey       = []byte("head-root")
	justifiedCheckpointKey = []byte("justified-checkpoint")
	finalizedCheckpointKey = []byte("finalized-checkpoint")
)
