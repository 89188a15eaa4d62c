package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_AddAndGet(t *testing.T) {
	q := New[string]()

	assert.True(t, q.Add("a"))
	assert.True(t, q.Add("b"))
	assert.Equal(t, 2, q.Len())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	got, ok := q.Get(ctx)
	require.True(t, ok)
	assert.Equal(t, "a", got)

	got, ok = q.Get(ctx)
	require.True(t, ok)
	assert.Equal(t, "b", got)
	assert.Equal(t, 0, q.Len())
}

func TestQueue_FIFOFromManyProducers(t *testing.T) {
	q := New[int]()

	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				q.Add(base*1000 + i)
			}
		}(p)
	}
	wg.Wait()

	last := map[int]int{0: -1, 1: -1, 2: -1, 3: -1}
	ctx := context.Background()
	for i := 0; i < 400; i++ {
		v, ok := q.Get(ctx)
		require.True(t, ok)
		producer, seq := v/1000, v%1000
		assert.Greater(t, seq, last[producer], "per-producer order must be preserved")
		last[producer] = seq
	}
}

func TestQueue_GetBlocksUntilAdd(t *testing.T) {
	q := New[int]()

	result := make(chan int, 1)
	go func() {
		v, ok := q.Get(context.Background())
		if ok {
			result <- v
		}
	}()

	time.Sleep(20 * time.Millisecond)
	q.Add(42)

	select {
	case v := <-result:
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("Get did not unblock after Add")
	}
}

func TestQueue_Shutdown(t *testing.T) {
	q := New[int]()

	done := make(chan bool)
	go func() {
		_, ok := q.Get(context.Background())
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	q.Shutdown()

	select {
	case ok := <-done:
		assert.False(t, ok, "Get should report shutdown")
	case <-time.After(time.Second):
		t.Fatal("Shutdown did not unblock Get")
	}

	assert.False(t, q.Add(1), "Add after shutdown must be rejected")
	assert.True(t, q.ShuttingDown())
}

func TestQueue_ShutdownDrainsQueuedItems(t *testing.T) {
	q := New[int]()
	q.Add(1)
	q.Shutdown()

	v, ok := q.Get(context.Background())
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = q.Get(context.Background())
	assert.False(t, ok)
}

func TestQueue_ContextCancellation(t *testing.T) {
	q := New[int]()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan bool)
	go func() {
		_, ok := q.Get(ctx)
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("context cancellation did not unblock Get")
	}
}
