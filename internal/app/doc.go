// Package app wires the application together: configuration, logging, the
// pipeline loader, the graph builder and the scheduler, plus the optional
// health check server.
package app
