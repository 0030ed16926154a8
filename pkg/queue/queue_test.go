package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_FIFOOrder(t *testing.T) {
	q := New[int]()
	for i := 0; i < 10; i++ {
		q.Push(i)
	}

	for i := 0; i < 10; i++ {
		item, ok := q.TryPop()
		require.True(t, ok)
		assert.Equal(t, i, item)
	}

	_, ok := q.TryPop()
	assert.False(t, ok)
}

func TestQueue_PopBlocksUntilPush(t *testing.T) {
	q := New[string]()

	got := make(chan string, 1)
	go func() {
		item, err := q.Pop(context.Background())
		if err == nil {
			got <- item
		}
	}()

	time.Sleep(10 * time.Millisecond)
	q.Push("FW10")

	select {
	case item := <-got:
		assert.Equal(t, "FW10", item)
	case <-time.After(time.Second):
		t.Fatal("Pop did not observe Push")
	}
}

func TestQueue_PopHonoursContext(t *testing.T) {
	q := New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Pop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueue_PopTimeout(t *testing.T) {
	q := New[int]()

	start := time.Now()
	_, ok, err := q.PopTimeout(context.Background(), 30*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)

	q.Push(7)
	item, ok, err := q.PopTimeout(context.Background(), 30*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 7, item)
}

func TestQueue_ClearIsAtomic(t *testing.T) {
	q := New[int]()
	q.Push(1)
	q.Push(2)
	q.Push(3)

	assert.Equal(t, 3, q.Clear())
	assert.True(t, q.IsEmpty())
	assert.Equal(t, 0, q.Clear())
}

func TestQueue_Replace(t *testing.T) {
	q := New[string]()
	q.Push("stale")

	q.Replace([]string{"FW10", "TR90", "FW20"})

	assert.Equal(t, 3, q.Len())
	item, ok := q.TryPop()
	require.True(t, ok)
	assert.Equal(t, "FW10", item)
}

func TestQueue_ReplaceWakesBlockedConsumer(t *testing.T) {
	q := New[int]()

	got := make(chan int, 1)
	go func() {
		item, err := q.Pop(context.Background())
		if err == nil {
			got <- item
		}
	}()

	time.Sleep(10 * time.Millisecond)
	q.Replace([]int{42})

	select {
	case item := <-got:
		assert.Equal(t, 42, item)
	case <-time.After(time.Second):
		t.Fatal("Pop did not observe Replace")
	}
}

func TestQueue_Stats(t *testing.T) {
	q := New[int]()
	q.Push(1)
	q.Push(2)
	_, _ = q.TryPop()
	q.Clear()

	pushed, popped, cleared := q.Stats()
	assert.Equal(t, int64(2), pushed)
	assert.Equal(t, int64(1), popped)
	assert.Equal(t, int64(1), cleared)
}
