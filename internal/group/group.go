package group

import (
	"context"
	"errors"
	"sync"

	"github.com/vk/jobgrid/internal/entry"
	"github.com/vk/jobgrid/internal/syncutil"
)

// ErrNoSyncEvent is returned by Wait on a group constructed without a sync
// event.
var ErrNoSyncEvent = errors.New("group: no sync event configured")

// Group is a composite entry: a barrier over a fixed set of member entries.
// Its dependency count is the number of members still outstanding; each
// member's completion decrements it through the dependency table. When the
// count reaches zero the barrier closes — the optional sync event releases
// any blocked foreground thread, and the group's own dependents are notified
// so the barrier can cascade further into the graph.
type Group struct {
	id    string
	deps  *entry.Counter
	table *entry.DependencyTable

	// event is the optional blocking primitive for foreground waits; nil
	// when the group was constructed without one.
	event *syncutil.Event

	// mu guards members.
	mu      sync.Mutex
	members []entry.Entry
}

// New constructs a Group. With withEvent, a sync event is created and —
// since a group starts with zero members — triggered immediately: a barrier
// over nothing is already closed and Wait must not block.
//
// The table is the same propagation table the rest of the graph uses; the
// group needs it both to count its members and to notify its own dependents
// when the barrier closes.
func New(id string, table *entry.DependencyTable, withEvent bool) *Group {
	g := &Group{
		id:    id,
		deps:  entry.NewCounter(id),
		table: table,
	}
	if withEvent {
		g.event = syncutil.NewEvent()
		g.event.Trigger()
	}
	return g
}

// ID implements entry.Entry.
func (g *Group) ID() string { return g.id }

// DependencyCount implements entry.Entry.
func (g *Group) DependencyCount() int32 { return g.deps.Count() }

// AddStaticDependency registers e as a permanent member of the barrier. It
// must be called before any member may already be running; adding members
// while completions are racing in re-arms the barrier unpredictably.
func (g *Group) AddStaticDependency(e entry.Entry) {
	g.mu.Lock()
	g.members = append(g.members, e)
	g.mu.Unlock()

	// Registers e -> g in the shared table and increments our counter.
	g.table.AddDependent(e, g)
}

// Members returns a snapshot of the statically registered members.
func (g *Group) Members() []entry.Entry {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]entry.Entry, len(g.members))
	copy(out, g.members)
	return out
}

// IncrementDependency implements entry.Entry. A count leaving zero means a
// satisfied barrier has re-armed, so the sync event blocks again.
func (g *Group) IncrementDependency() {
	if g.deps.Increment() {
		g.dependencyNotReady()
	}
}

// DecrementDependency implements entry.Entry. The caller observing the
// zero-crossing closes the barrier.
func (g *Group) DecrementDependency() {
	if g.deps.Decrement() {
		g.dependencyReady()
	}
}

// dependencyReady closes the barrier: release the foreground waiter, then
// cascade to whatever depends on the group itself.
func (g *Group) dependencyReady() {
	if g.event != nil {
		g.event.Trigger()
	}
	g.table.NotifyDependents(g)
}

// dependencyNotReady re-arms the barrier after a dynamic edge was added.
func (g *Group) dependencyNotReady() {
	if g.event != nil {
		g.event.Reset()
	}
}

// Wait blocks the calling goroutine until the barrier closes or the context
// is canceled. It returns immediately when every member has already
// signaled, including the zero-member case. Wait on a group built without a
// sync event returns ErrNoSyncEvent.
//
// The waiter must be released (or the wait canceled) before the group is
// discarded; a group must not outlive a goroutine still blocked on it.
func (g *Group) Wait(ctx context.Context) error {
	if g.event == nil {
		return ErrNoSyncEvent
	}
	return g.event.Wait(ctx)
}
