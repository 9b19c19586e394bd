// Package entry defines the dependency-graph node contract shared by jobs
// and groups: an atomic dependency counter with exactly-once zero-crossing
// semantics, and the DependencyTable that propagates completion from an
// entry to its dependents.
package entry
