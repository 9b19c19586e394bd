// Package group implements the synchronization barrier of the dependency
// graph: a composite entry whose counter tracks a fixed member set, with an
// optional blocking sync event for foreground threads.
package group
