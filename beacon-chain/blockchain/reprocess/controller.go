// Package reprocess holds operations that reference a block root the node has
// not imported yet, and releases them once the block is imported or the wait
// becomes pointless.
package reprocess

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-ingest/encoding/bytesutil"
	"github.com/sirupsen/logrus"
)

// awaitingBlock is shared by every operation waiting for the same root. It is
// resolved exactly once.
type awaitingBlock struct {
	slot  primitives.Slot
	once  sync.Once
	done  chan struct{}
	found bool
}

func (a *awaitingBlock) resolve(found bool) {
	a.once.Do(func() {
		a.found = found
		close(a.done)
		if found {
			resolvedAwaitingBlocks.WithLabelValues("imported").Inc()
		} else {
			resolvedAwaitingBlocks.WithLabelValues("expired").Inc()
		}
	})
}

func (a *awaitingBlock) wait(ctx context.Context) bool {
	select {
	case <-a.done:
		return a.found
	case <-ctx.Done():
		return false
	}
}

// Controller tracks awaited block roots. Entries live at most ttl, and are
// dropped earlier once their slot falls behind the slot the chain advanced to.
type Controller struct {
	lock    sync.Mutex
	pending *cache.Cache
}

// New creates a controller whose waits expire after ttl.
func New(ttl time.Duration) *Controller {
	c := &Controller{pending: cache.New(ttl, ttl)}
	c.pending.OnEvicted(func(_ string, v interface{}) {
		if a, ok := v.(*awaitingBlock); ok {
			a.resolve(false)
		}
		awaitingBlocks.Set(float64(c.pending.ItemCount()))
	})
	return c
}

// WaitForBlock blocks until the block with root is imported, in which case it
// returns true. It returns false when the wait expired or ctx is done. Callers
// check whether the block is already known before waiting.
func (c *Controller) WaitForBlock(ctx context.Context, slot primitives.Slot, root [32]byte) bool {
	return c.awaitBlock(slot, root).wait(ctx)
}

// awaitBlock returns the entry for root, creating it if needed. The entry keeps
// the highest slot any waiter asked for.
func (c *Controller) awaitBlock(slot primitives.Slot, root [32]byte) *awaitingBlock {
	c.lock.Lock()
	defer c.lock.Unlock()

	key := rootKey(root)
	if v, ok := c.pending.Get(key); ok {
		a := v.(*awaitingBlock)
		if slot > a.slot {
			a.slot = slot
		}
		return a
	}
	a := &awaitingBlock{slot: slot, done: make(chan struct{})}
	c.pending.Set(key, a, cache.DefaultExpiration)
	awaitingBlocks.Set(float64(c.pending.ItemCount()))
	return a
}

// OnBlockImported releases the waiters of root with a positive outcome, and
// expires every wait for a slot older than advancedSlot.
func (c *Controller) OnBlockImported(slot primitives.Slot, root [32]byte, advancedSlot primitives.Slot) {
	c.lock.Lock()
	defer c.lock.Unlock()

	key := rootKey(root)
	if v, ok := c.pending.Get(key); ok {
		v.(*awaitingBlock).resolve(true)
		c.pending.Delete(key)
		log.WithFields(logrus.Fields{
			"slot": slot,
			"root": fmt.Sprintf("%#x", bytesutil.Trunc(root[:])),
		}).Debug("Released operations waiting for block")
	}

	expired := 0
	for k, item := range c.pending.Items() {
		a, ok := item.Object.(*awaitingBlock)
		if !ok || a.slot >= advancedSlot {
			continue
		}
		c.pending.Delete(k)
		expired++
	}
	c.pending.DeleteExpired()
	if expired > 0 {
		log.WithFields(logrus.Fields{
			"advancedSlot": advancedSlot,
			"expired":      expired,
		}).Debug("Expired operations waiting for old blocks")
	}
}

// Len returns the number of awaited block roots.
func (c *Controller) Len() int {
	return c.pending.ItemCount()
}

func rootKey(root [32]byte) string {
	return fmt.Sprintf("%#x", root)
}
