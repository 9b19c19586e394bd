// Package syncutil provides the small synchronization primitives the
// scheduler is built on top of.
package syncutil

import (
	"context"
	"sync"
)

// Event is a resettable, broadcast synchronization event. Triggering it
// releases every current and future waiter until Reset arms it again.
// It backs a group's sync barrier: the barrier closing triggers the event,
// a dynamic dependency re-arming the barrier resets it.
//
// The zero value is not usable; construct with NewEvent.
type Event struct {
	mu  sync.Mutex
	ch  chan struct{}
	set bool
}

// NewEvent returns an event in the non-triggered state.
func NewEvent() *Event {
	return &Event{ch: make(chan struct{})}
}

// Trigger sets the event and releases all waiters. Triggering an already-set
// event is a no-op.
func (e *Event) Trigger() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.set {
		e.set = true
		close(e.ch)
	}
}

// Reset re-arms the event. Waiters that were released by an earlier Trigger
// stay released; only waits started after the Reset block again.
func (e *Event) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.set {
		e.set = false
		e.ch = make(chan struct{})
	}
}

// Set reports whether the event is currently triggered.
func (e *Event) Set() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.set
}

// Wait blocks until the event is triggered or the context is canceled. It
// returns immediately when the event is already set.
func (e *Event) Wait(ctx context.Context) error {
	e.mu.Lock()
	if e.set {
		e.mu.Unlock()
		return nil
	}
	ch := e.ch
	e.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
