// Package job implements the leaf work item of the dependency graph: a
// callable with a dependency counter, a Pending/Ready/Running/Completed
// state machine, and failure containment at the job boundary.
package job
