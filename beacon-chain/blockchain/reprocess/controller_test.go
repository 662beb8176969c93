package reprocess

import (
	"context"
	"testing"
	"time"

	"github.com/prysmaticlabs/beacon-ingest/testing/assert"
	"github.com/prysmaticlabs/beacon-ingest/testing/require"
)

func TestController_ImportedBlockReleasesWaiters(t *testing.T) {
	ctx := context.Background()
	c := New(time.Minute)
	root := [32]byte{'a'}

	first := c.awaitBlock(4, root)
	second := c.awaitBlock(5, root)
	require.Equal(t, true, first == second, "waiters of one root share an entry")
	assert.Equal(t, 1, c.Len())

	c.OnBlockImported(4, root, 4)
	assert.Equal(t, true, first.wait(ctx))
	assert.Equal(t, 0, c.Len())

	// Resolving twice is harmless.
	c.OnBlockImported(4, root, 4)
	assert.Equal(t, true, first.wait(ctx))
}

func TestController_AdvancedSlotExpiresOldWaits(t *testing.T) {
	ctx := context.Background()
	c := New(time.Minute)

	old := c.awaitBlock(5, [32]byte{'o'})
	current := c.awaitBlock(7, [32]byte{'c'})
	c.OnBlockImported(7, [32]byte{'x'}, 7)

	assert.Equal(t, false, old.wait(ctx))
	assert.Equal(t, 1, c.Len())
	select {
	case <-current.done:
		t.Fatal("wait for the advanced slot should still be pending")
	default:
	}

	c.OnBlockImported(7, [32]byte{'c'}, 8)
	assert.Equal(t, true, current.wait(ctx))
	assert.Equal(t, 0, c.Len())
}

func TestController_HighestSlotKeepsWaitAlive(t *testing.T) {
	ctx := context.Background()
	c := New(time.Minute)
	root := [32]byte{'a'}

	a := c.awaitBlock(3, root)
	c.awaitBlock(9, root)
	c.OnBlockImported(8, [32]byte{'x'}, 8)
	assert.Equal(t, 1, c.Len())

	c.OnBlockImported(9, root, 9)
	assert.Equal(t, true, a.wait(ctx))
}

func TestController_TTLExpiry(t *testing.T) {
	c := New(20 * time.Millisecond)
	a := c.awaitBlock(1, [32]byte{'a'})
	select {
	case <-a.done:
	case <-time.After(2 * time.Second):
		t.Fatal("wait did not expire")
	}
	assert.Equal(t, false, a.found)
	assert.Equal(t, 0, c.Len())
}

func TestController_WaitForBlock(t *testing.T) {
	c := New(time.Minute)
	root := [32]byte{'a'}

	result := make(chan bool, 1)
	go func() {
		result <- c.WaitForBlock(context.Background(), 1, root)
	}()
	deadline := time.Now().Add(2 * time.Second)
	for c.Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("waiter was not registered")
		}
		time.Sleep(time.Millisecond)
	}
	c.OnBlockImported(1, root, 1)
	select {
	case found := <-result:
		assert.Equal(t, true, found)
	case <-time.After(2 * time.Second):
		t.Fatal("waiter was not released")
	}
}

func TestController_WaitForBlockContextDone(t *testing.T) {
	c := New(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, false, c.WaitForBlock(ctx, 1, [32]byte{'a'}))
	// The entry stays for other waiters.
	assert.Equal(t, 1, c.Len())
}
