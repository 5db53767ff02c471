package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sparkify-data/sparkify-etl/pkg/sparkify"
)

// InteractiveApprover asks the user to type the database name before a
// destructive operation.
type InteractiveApprover struct {
	input   io.Reader
	output  io.Writer
	verbose bool
}

// NewInteractiveApprover creates an InteractiveApprover on stdin and stderr.
func NewInteractiveApprover(verbose bool) sparkify.Approver {
	return &InteractiveApprover{input: os.Stdin, output: os.Stderr, verbose: verbose}
}

// RequestApproval prompts for the database name and approves on an exact match.
func (a *InteractiveApprover) RequestApproval(ctx context.Context, dbName string) (bool, error) {
	fmt.Fprintf(a.output, "\n⚠️  WARNING: You are about to DROP the songs, artists, users, time and songplays tables in '%s'\n", dbName)
	fmt.Fprintln(a.output, "This will permanently delete all loaded data!")
	fmt.Fprintf(a.output, "\nTo confirm, type the database name '%s' and press Enter: ", dbName)

	// Read user input with context cancellation support
	inputChan := make(chan string, 1)
	errChan := make(chan error, 1)

	go func() {
		reader := bufio.NewReader(a.input)
		input, err := reader.ReadString('\n')
		if err != nil && input == "" {
			errChan <- err
			return
		}
		inputChan <- strings.TrimSpace(input)
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case err := <-errChan:
		return false, fmt.Errorf("failed to read input: %w", err)
	case input := <-inputChan:
		if input == dbName {
			fmt.Fprintln(a.output, "✓ Confirmed. Proceeding with schema drop...")
			return true, nil
		}
		fmt.Fprintf(a.output, "✗ Input '%s' does not match database name '%s'. Operation cancelled.\n", input, dbName)
		return false, nil
	}
}

var _ sparkify.Approver = (*InteractiveApprover)(nil)
