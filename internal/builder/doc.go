// Package builder turns a parsed pipeline definition into a live dependency
// graph: jobs bound to their runner handlers, groups over their members,
// edges wired through the shared dependency table.
package builder
