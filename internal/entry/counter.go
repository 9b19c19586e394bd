package entry

import (
	"fmt"
	"sync/atomic"
)

// ConsistencyError reports a dependency-counter violation: a decrement on an
// entry whose counter was already zero. This is always a programming error in
// the caller's graph wiring (a dependency edge signaled twice), so it is
// delivered as a panic value rather than a returned error — the scheduling
// run cannot safely continue once the counters are out of step with the
// edges.
type ConsistencyError struct {
	// EntryID identifies the entry whose counter was violated.
	EntryID string
}

// Error implements the error interface.
func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("dependency counter underflow on entry %q: decrement past zero (double-signaled edge)", e.EntryID)
}

// Counter is the shared dependency-count state embedded by every Entry
// implementation. All mutations are atomic; the zero-crossing on decrement is
// observed by exactly one caller, which makes that caller responsible for the
// entry's ready transition.
type Counter struct {
	id string
	n  atomic.Int32
}

// NewCounter returns a Counter starting at zero, owned by the entry with the
// given id.
func NewCounter(id string) *Counter {
	return &Counter{id: id}
}

// Count returns the current value.
func (c *Counter) Count() int32 {
	return c.n.Load()
}

// Increment adds one and reports whether the counter left zero, i.e. a
// previously satisfied entry became blocked again.
func (c *Counter) Increment() bool {
	return c.n.Add(1) == 1
}

// Decrement subtracts one and reports whether the counter reached zero.
// Exactly one concurrent caller observes the zero-crossing. A decrement on a
// counter that is already zero panics with a *ConsistencyError; the counter
// is never clamped, because silently absorbing a double signal would corrupt
// every downstream ready decision.
func (c *Counter) Decrement() bool {
	for {
		cur := c.n.Load()
		if cur == 0 {
			panic(&ConsistencyError{EntryID: c.id})
		}
		if c.n.CompareAndSwap(cur, cur-1) {
			return cur == 1
		}
	}
}
