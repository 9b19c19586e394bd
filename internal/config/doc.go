// Package config defines the declarative pipeline model: job and group
// blocks as they appear in .hcl pipeline files, before the graph builder
// turns them into live entries.
package config
