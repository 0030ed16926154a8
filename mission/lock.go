package mission

import "context"

// MovementLock enforces the invariant "at most one movement command in
// flight on the motor link". It is released from several independent code
// paths (dispatch failure, the snapshot branch, motor FIN, finalize), so
// Release is idempotent: releasing an unheld lock is a no-op, never an error.
type MovementLock struct {
	sem chan struct{}
}

// NewMovementLock creates a free lock.
func NewMovementLock() *MovementLock {
	return &MovementLock{sem: make(chan struct{}, 1)}
}

// Acquire blocks until the lock is free or ctx is cancelled.
func (l *MovementLock) Acquire(ctx context.Context) error {
	select {
	case l.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire acquires the lock without blocking. Returns false if held.
func (l *MovementLock) TryAcquire() bool {
	select {
	case l.sem <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release frees the lock. Returns true when the lock was actually held;
// releasing an unheld lock is a no-op.
func (l *MovementLock) Release() bool {
	select {
	case <-l.sem:
		return true
	default:
		return false
	}
}

// Held reports whether the lock is currently held.
func (l *MovementLock) Held() bool {
	return len(l.sem) == 1
}
