// Package logging provides concrete implementations of the sparkify.Logger interface.
package logging
