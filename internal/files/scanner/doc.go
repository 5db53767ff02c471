// Package scanner discovers input data files below a phase root.
//
// Files are matched by extension, case-insensitively, and returned sorted by
// path so progress output is reproducible. Hidden files (names starting with
// a dot) are ignored, as a shell glob would.
package scanner
