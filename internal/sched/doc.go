// Package sched is the execution layer: a fixed pool of workers sharing one
// unbounded ready queue, driving dependency-counter transitions as jobs
// complete. It operates on the entry contract only and never branches on
// whether a dependent is a job or a group.
package sched
