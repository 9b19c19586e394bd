// Package registry maps runner names from pipeline files to the Go handlers
// that execute them.
package registry
