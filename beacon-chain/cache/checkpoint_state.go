package cache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-ingest/config/params"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/blocks"
)

var (
	// Metrics.
	checkpointStateMiss = promauto.NewCounter(prometheus.CounterOpts{
		Name: "check_point_state_cache_miss",
		Help: "The number of check point state requests that aren't present in the cache.",
	})
	checkpointStateHit = promauto.NewCounter(prometheus.CounterOpts{
		Name: "check_point_state_cache_hit",
		Help: "The number of check point state requests that are present in the cache.",
	})
	checkpointStateSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "check_point_state_cache_size",
		Help: "The number of states held in the check point state cache.",
	})
)

// CheckpointStateCache is a struct with 1 queue for looking up state by checkpoint.
type CheckpointStateCache struct {
	cache *lru.Cache
	lock  sync.RWMutex
}

// NewCheckpointStateCache creates a new checkpoint state cache for storing/accessing processed state.
func NewCheckpointStateCache() *CheckpointStateCache {
	size := params.BeaconConfig().CheckpointStateCacheSize
	if size <= 0 {
		size = 10
	}
	cache, err := lru.New(size)
	if err != nil {
		panic(err) // lru.New only errors on a non-positive size.
	}
	return &CheckpointStateCache{
		cache: cache,
	}
}

// StateByCheckpoint fetches state by checkpoint. Returns true with a
// reference to the CheckpointState info, if exists. Otherwise returns false, nil.
func (c *CheckpointStateCache) StateByCheckpoint(cp *blocks.Checkpoint) (state.BeaconState, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	h, err := checkpointKey(cp)
	if err != nil {
		return nil, err
	}

	item, exists := c.cache.Get(h)
	if !exists || item == nil {
		checkpointStateMiss.Inc()
		return nil, nil
	}
	checkpointStateHit.Inc()

	st, ok := item.(state.BeaconState)
	if !ok {
		return nil, ErrCastingFailed
	}
	// Copy here is unnecessary since the return will only be used to verify attestation signature.
	return st, nil
}

// AddCheckpointState adds CheckpointState object to the cache. This method also trims the least
// recently added CheckpointState object if the cache size has ready the max cache size limit.
func (c *CheckpointStateCache) AddCheckpointState(cp *blocks.Checkpoint, s state.BeaconState) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	h, err := checkpointKey(cp)
	if err != nil {
		return err
	}
	c.cache.Add(h, s)
	checkpointStateSize.Set(float64(c.cache.Len()))
	return nil
}

// Len returns the number of cached states.
func (c *CheckpointStateCache) Len() int {
	return c.cache.Len()
}

func checkpointKey(cp *blocks.Checkpoint) ([32]byte, error) {
	if cp == nil {
		return [32]byte{}, ErrNilCheckpoint
	}
	return cp.HashTreeRoot()
}
