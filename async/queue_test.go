package async_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prysmaticlabs/beacon-ingest/async"
	"github.com/prysmaticlabs/beacon-ingest/testing/assert"
	"github.com/prysmaticlabs/beacon-ingest/testing/require"
	logTest "github.com/sirupsen/logrus/hooks/test"
)

func TestQueue_DrainRunsInOrder(t *testing.T) {
	q := async.NewQueue("test")
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		q.Push(func() {
			order = append(order, i)
		})
	}
	assert.Equal(t, 5, q.Len())
	assert.Equal(t, 5, q.Drain())
	assert.DeepEqual(t, []int{0, 1, 2, 3, 4}, order)
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, 0, q.Drain())
}

func TestQueue_TasksPushedWhileDraining(t *testing.T) {
	q := async.NewQueue("test")
	var order []string
	q.Push(func() {
		order = append(order, "first")
		q.Push(func() {
			order = append(order, "nested")
		})
	})
	q.Push(func() {
		order = append(order, "second")
	})
	assert.Equal(t, 3, q.Drain())
	assert.DeepEqual(t, []string{"first", "second", "nested"}, order)
}

func TestQueue_PanicIsIsolated(t *testing.T) {
	hook := logTest.NewGlobal()
	q := async.NewQueue("test")
	ran := false
	q.Push(func() {
		panic("boom")
	})
	q.Push(func() {
		ran = true
	})
	assert.Equal(t, 2, q.Drain())
	assert.Equal(t, true, ran)
	require.LogsContain(t, hook, "Deferred task panicked")
}

func TestQueue_Start(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q := async.NewQueue("test")
	q.Start(ctx)

	var wg sync.WaitGroup
	wg.Add(3)
	for i := 0; i < 3; i++ {
		q.Push(wg.Done)
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for the background worker")
	}
}

func TestQueue_PushMany(t *testing.T) {
	q := async.NewQueue("test")
	var order []int
	q.Push()
	q.Push(nil, nil)
	assert.Equal(t, 0, q.Len())

	q.Push(
		func() { order = append(order, 1) },
		nil,
		func() { order = append(order, 2) },
	)
	assert.Equal(t, 2, q.Len())
	assert.Equal(t, 2, q.Drain())
	assert.DeepEqual(t, []int{1, 2}, order)
}
