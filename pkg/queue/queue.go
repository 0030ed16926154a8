// Package queue provides a generic, thread-safe FIFO queue used as the
// channel between mission workers. Unlike a raw Go channel it supports
// atomic Clear (a successful plan response replaces the queued commands
// wholesale) and a bounded-wait Pop variant (the outbound sender polls with
// a short timeout so it notices link failure promptly).
//
// All operations preserve arrival order. Queues are unbounded; producers
// never block. Blocking pops honour context cancellation, which is why the
// implementation signals on a recreated channel instead of a sync.Cond.
package queue

import (
	"context"
	"sync"
	"time"
)

// Queue is a multi-producer, single-consumer FIFO.
type Queue[T any] struct {
	mu       sync.Mutex
	items    []T
	notEmpty chan struct{}

	// Statistics, always collected for observability.
	pushed  int64
	popped  int64
	cleared int64
}

// New creates an empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{notEmpty: make(chan struct{})}
}

// Push appends an item. Never blocks.
func (q *Queue[T]) Push(item T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, item)
	q.pushed++
	// Wake any blocked consumer. The channel is only closed here and
	// recreated under the same lock, so a double close cannot occur.
	select {
	case <-q.notEmpty:
	default:
		close(q.notEmpty)
	}
}

// TryPop removes and returns the head of the queue without blocking.
// Returns the zero value and false if the queue is empty.
func (q *Queue[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popLocked()
}

// Pop blocks until an item is available or ctx is cancelled.
func (q *Queue[T]) Pop(ctx context.Context) (T, error) {
	for {
		q.mu.Lock()
		if item, ok := q.popLocked(); ok {
			q.mu.Unlock()
			return item, nil
		}
		wake := q.waitChanLocked()
		q.mu.Unlock()

		select {
		case <-wake:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// PopTimeout blocks for at most d. Returns false when the wait expired with
// the queue still empty.
func (q *Queue[T]) PopTimeout(ctx context.Context, d time.Duration) (T, bool, error) {
	deadline := time.NewTimer(d)
	defer deadline.Stop()

	for {
		q.mu.Lock()
		if item, ok := q.popLocked(); ok {
			q.mu.Unlock()
			return item, true, nil
		}
		wake := q.waitChanLocked()
		q.mu.Unlock()

		select {
		case <-wake:
		case <-deadline.C:
			var zero T
			return zero, false, nil
		case <-ctx.Done():
			var zero T
			return zero, false, ctx.Err()
		}
	}
}

// Clear removes all queued items atomically and returns how many were dropped.
func (q *Queue[T]) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.items)
	q.items = nil
	q.cleared += int64(n)
	return n
}

// Replace atomically clears the queue and enqueues the given items in order.
func (q *Queue[T]) Replace(items []T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cleared += int64(len(q.items))
	q.items = append([]T(nil), items...)
	q.pushed += int64(len(items))
	if len(q.items) > 0 {
		select {
		case <-q.notEmpty:
		default:
			close(q.notEmpty)
		}
	}
}

// Len returns the current number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// IsEmpty reports whether the queue holds no items.
func (q *Queue[T]) IsEmpty() bool {
	return q.Len() == 0
}

// Stats returns cumulative push/pop/clear counts.
func (q *Queue[T]) Stats() (pushed, popped, cleared int64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pushed, q.popped, q.cleared
}

func (q *Queue[T]) popLocked() (T, bool) {
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	q.popped++
	return item, true
}

// waitChanLocked returns the channel a consumer should block on. A fresh
// channel is installed whenever the previous one was already consumed.
func (q *Queue[T]) waitChanLocked() chan struct{} {
	select {
	case <-q.notEmpty:
		q.notEmpty = make(chan struct{})
	default:
	}
	return q.notEmpty
}
