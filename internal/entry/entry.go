package entry

// Entry is a single participant in the dependency graph. Both leaf work
// items (job.Job) and composite barriers (group.Group) implement it; the
// scheduler and the dependency table operate on this contract alone and
// never branch on the concrete type.
type Entry interface {
	// ID returns the unique identifier of the entry, used in logs and
	// consistency diagnostics.
	ID() string

	// IncrementDependency atomically adds one unmet dependency. It is used
	// when an edge is wired after construction; a barrier that was already
	// satisfied re-arms.
	IncrementDependency()

	// DecrementDependency atomically removes one unmet dependency. The
	// entry whose count reaches zero becomes ready: a job gets scheduled, a
	// barrier closes. Decrementing an entry whose count is already zero is
	// a double-signal and panics with a *ConsistencyError.
	DecrementDependency()

	// DependencyCount returns the current number of unmet dependencies.
	DependencyCount() int32
}
