package cache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prysmaticlabs/beacon-ingest/config/params"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
	"github.com/prysmaticlabs/go-bitfield"
)

var (
	seenAggregatedAttestationHit = promauto.NewCounter(prometheus.CounterOpts{
		Name: "seen_aggregated_attestation_cache_hit",
		Help: "The number of aggregates found to be covered by an already seen aggregate.",
	})
	seenAggregatedAttestationMiss = promauto.NewCounter(prometheus.CounterOpts{
		Name: "seen_aggregated_attestation_cache_miss",
		Help: "The number of aggregates not covered by any already seen aggregate.",
	})
)

// AggregationInfo is a seen aggregate for one attestation data root.
type AggregationInfo struct {
	AggregationBits bitfield.Bitlist
	TrueBitCount    uint64
}

type seenAggregateKey struct {
	targetEpoch primitives.Epoch
	dataRoot    [32]byte
}

// SeenAggregatedAttestations suppresses aggregates that add no new participation
// over an aggregate already seen for the same (target epoch, data root).
type SeenAggregatedAttestations struct {
	cache *lru.Cache
	lock  sync.Mutex
}

// NewSeenAggregatedAttestations creates a bounded seen aggregate cache.
func NewSeenAggregatedAttestations() *SeenAggregatedAttestations {
	size := params.BeaconConfig().SeenAttestationCacheSize
	if size <= 0 {
		size = 2048
	}
	c, err := lru.New(size)
	if err != nil {
		panic(err) // lru.New only errors on a non-positive size.
	}
	return &SeenAggregatedAttestations{cache: c}
}

// Add records an aggregate. With checkIsSuperSet, an aggregate already covered by a
// seen one is not stored again.
func (s *SeenAggregatedAttestations) Add(targetEpoch primitives.Epoch, dataRoot [32]byte, info AggregationInfo, checkIsSuperSet bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	key := seenAggregateKey{targetEpoch: targetEpoch, dataRoot: dataRoot}
	var seen []AggregationInfo
	if v, ok := s.cache.Get(key); ok {
		seen, _ = v.([]AggregationInfo)
	}
	if checkIsSuperSet && covered(seen, info.AggregationBits) {
		return
	}
	seen = append(seen, AggregationInfo{
		AggregationBits: append(bitfield.Bitlist(nil), info.AggregationBits...),
		TrueBitCount:    info.TrueBitCount,
	})
	s.cache.Add(key, seen)
}

// IsKnown returns true if a seen aggregate for the same target epoch and data
// root already includes every bit set in bits.
func (s *SeenAggregatedAttestations) IsKnown(targetEpoch primitives.Epoch, dataRoot [32]byte, bits bitfield.Bitlist) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	v, ok := s.cache.Get(seenAggregateKey{targetEpoch: targetEpoch, dataRoot: dataRoot})
	if !ok {
		seenAggregatedAttestationMiss.Inc()
		return false
	}
	seen, _ := v.([]AggregationInfo)
	if covered(seen, bits) {
		seenAggregatedAttestationHit.Inc()
		return true
	}
	seenAggregatedAttestationMiss.Inc()
	return false
}

// Len returns the number of distinct (target epoch, data root) entries.
func (s *SeenAggregatedAttestations) Len() int {
	return s.cache.Len()
}

func covered(seen []AggregationInfo, bits bitfield.Bitlist) bool {
	for _, info := range seen {
		if info.AggregationBits.Len() != bits.Len() {
			continue
		}
		contains, err := info.AggregationBits.Contains(bits)
		if err == nil && contains {
			return true
		}
	}
	return false
}
