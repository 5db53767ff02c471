// Package filesystem abstracts directory traversal so that discovery can run
// against the OS or an in-memory tree in tests.
package filesystem
