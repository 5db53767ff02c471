package progress

import (
	"io"
	"os"

	"golang.org/x/term"
)

// Mode selects how progress is rendered.
type Mode int

const (
	// ModePlain writes one line per file, suitable for logs and pipes.
	ModePlain Mode = iota
	// ModeRich redraws a single progress bar line and colors the summary.
	ModeRich
)

// DetectMode returns ModeRich only when w is a terminal and none of
// SPARKIFY_PLAIN_PROGRESS=1, CI or NO_COLOR is set.
func DetectMode(w io.Writer) Mode {
	if os.Getenv("SPARKIFY_PLAIN_PROGRESS") == "1" || os.Getenv("CI") != "" || os.Getenv("NO_COLOR") != "" {
		return ModePlain
	}
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return ModePlain
	}
	return ModeRich
}
