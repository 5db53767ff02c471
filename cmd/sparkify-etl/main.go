package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/sparkify-data/sparkify-etl/internal/cli"
	"github.com/sparkify-data/sparkify-etl/pkg/sparkify"
)

func main() {
	// Recover from panics to ensure graceful exits with stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(sparkify.ExitPanic)
		}
	}()

	if err := cli.Execute(); err != nil {
		os.Exit(sparkify.ExitCodeForError(err))
	}
}
