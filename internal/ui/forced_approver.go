package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sparkify-data/sparkify-etl/pkg/sparkify"
)

// ForcedApprover approves after a countdown, used with --force. The
// countdown leaves a window to cancel with Ctrl+C.
type ForcedApprover struct {
	output  io.Writer
	sleepFn func(time.Duration)
	verbose bool
}

// NewForcedApprover creates a ForcedApprover writing to stderr.
func NewForcedApprover(verbose bool) sparkify.Approver {
	return &ForcedApprover{output: os.Stderr, sleepFn: time.Sleep, verbose: verbose}
}

// RequestApproval counts down and then approves.
func (a *ForcedApprover) RequestApproval(ctx context.Context, dbName string) (bool, error) {
	fmt.Fprintf(a.output, "\nDANGER: dropping all Sparkify tables in database '%s'\n", dbName)

	countdownSeconds := int(sparkify.DefaultForceApprovalCountdown.Seconds())
	for i := countdownSeconds; i > 0; i-- {
		select {
		case <-ctx.Done():
			fmt.Fprintln(a.output)
			return false, ctx.Err()
		default:
			fmt.Fprintf(a.output, "\rDropping in: %d seconds... (Press Ctrl+C to cancel)", i)
			a.sleepFn(time.Second)
		}
	}

	fmt.Fprintf(a.output, "\r✓ Proceeding with schema drop...                              \n")
	return true, nil
}

var _ sparkify.Approver = (*ForcedApprover)(nil)
