package entry

import "sync"

// DependencyTable is the propagation map from a completed entry to the
// entries that depend on it. It is the sole mechanism by which completion
// travels through the graph: when an entry finishes, NotifyDependents must be
// called exactly once for it, and each registered dependent is decremented
// exactly once.
//
// Edges are back-references only. The table never owns the entries it points
// at; the graph builder does.
type DependencyTable struct {
	// mu protects the dependents map during concurrent registration and
	// notification.
	mu sync.Mutex
	// dependents maps an owner entry to the entries waiting on it. A key is
	// present only while it has at least one registered dependent.
	dependents map[Entry][]Entry
}

// NewDependencyTable returns an empty table.
func NewDependencyTable() *DependencyTable {
	return &DependencyTable{
		dependents: make(map[Entry][]Entry),
	}
}

// AddDependent registers that dependent must be decremented when owner
// completes, and increments the dependent's counter so edge registration and
// counting stay in lockstep. The caller must not create a cycle — the graph
// contract is a DAG, and a cycle deadlocks the scheduler rather than being
// detected here.
//
// Edges must be wired before the owner can complete; adding an edge to an
// owner that already notified its dependents leaves the dependent blocked
// forever.
func (t *DependencyTable) AddDependent(owner, dependent Entry) {
	dependent.IncrementDependency()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.dependents[owner] = append(t.dependents[owner], dependent)
}

// NotifyDependents decrements every dependent registered for owner, then
// clears the registration so a second call for the same completion is a
// no-op on the table. The decrements run outside the table lock: a dependent
// reaching zero may schedule work or close a barrier, and neither should
// happen while the table is held.
func (t *DependencyTable) NotifyDependents(owner Entry) {
	t.mu.Lock()
	deps := t.dependents[owner]
	delete(t.dependents, owner)
	t.mu.Unlock()

	for _, d := range deps {
		d.DecrementDependency()
	}
}

// Dependents returns a snapshot of the entries currently registered against
// owner. It exists for introspection and tests; propagation goes through
// NotifyDependents only.
func (t *DependencyTable) Dependents(owner Entry) []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Entry, len(t.dependents[owner]))
	copy(out, t.dependents[owner])
	return out
}
