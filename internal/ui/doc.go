// Package ui asks for confirmation before destructive schema operations.
package ui
