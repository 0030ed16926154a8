// Package gate provides the small fixed set of named synchronization
// primitives the mission workers share: boolean gates that block a whole
// class of operations while closed, and flags that block a waiter until
// raised. All primitives are safe for concurrent use and every waiter
// honours context cancellation.
package gate

import (
	"context"
	"sync"
)

// Gate blocks callers of Wait while closed and releases them all when opened.
// A gate constructed with New starts closed.
type Gate struct {
	mu   sync.Mutex
	cond chan struct{}
	open bool
}

// New creates a closed gate.
func New() *Gate {
	return &Gate{cond: make(chan struct{})}
}

// Open opens the gate, releasing all current and future waiters.
// Opening an open gate is a no-op.
func (g *Gate) Open() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.open {
		return
	}
	g.open = true
	close(g.cond)
}

// Close closes the gate. Subsequent Wait calls block until the next Open.
// Closing a closed gate is a no-op.
func (g *Gate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.open {
		return
	}
	g.open = false
	g.cond = make(chan struct{})
}

// IsOpen reports whether the gate is currently open.
func (g *Gate) IsOpen() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.open
}

// Wait blocks until the gate is open or ctx is cancelled.
func (g *Gate) Wait(ctx context.Context) error {
	for {
		g.mu.Lock()
		if g.open {
			g.mu.Unlock()
			return nil
		}
		cond := g.cond
		g.mu.Unlock()

		select {
		case <-cond:
			// Re-check: the gate may have been closed again between the
			// channel close and this waiter waking up.
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Flag is a raisable boolean condition. Unlike Gate it is phrased for
// edge-triggered waits: a supervisor blocks on Wait until the flag is
// raised, services the condition, then clears it and loops.
type Flag struct {
	gate *Gate
}

// NewFlag creates a cleared flag.
func NewFlag() *Flag {
	return &Flag{gate: New()}
}

// Set raises the flag, releasing all waiters. Idempotent.
func (f *Flag) Set() { f.gate.Open() }

// Clear lowers the flag. Idempotent.
func (f *Flag) Clear() { f.gate.Close() }

// IsSet reports whether the flag is raised.
func (f *Flag) IsSet() bool { return f.gate.IsOpen() }

// Wait blocks until the flag is raised or ctx is cancelled.
func (f *Flag) Wait(ctx context.Context) error { return f.gate.Wait(ctx) }
