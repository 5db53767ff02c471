// Package progress renders batch progress and the end-of-run summary.
package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	bubblesprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/sparkify-data/sparkify-etl/pkg/sparkify"
)

const barWidth = 40

// Reporter implements sparkify.ProgressReporter.
// Safe for concurrent use.
type Reporter struct {
	mu   sync.Mutex
	out  io.Writer
	mode Mode
	bar  bubblesprogress.Model

	// pending is set while a bar is drawn without its trailing newline.
	pending bool
}

// NewReporter renders to w, choosing the mode with DetectMode.
func NewReporter(w io.Writer) *Reporter {
	return NewReporterWithMode(w, DetectMode(w))
}

func NewReporterWithMode(w io.Writer, mode Mode) *Reporter {
	return &Reporter{
		out:  w,
		mode: mode,
		bar:  bubblesprogress.New(bubblesprogress.WithDefaultGradient(), bubblesprogress.WithWidth(barWidth), bubblesprogress.WithoutPercentage()),
	}
}

func (r *Reporter) PhaseStarted(phase, root string, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endLine()

	line := fmt.Sprintf("%d files found in %s", total, root)
	if r.mode == ModeRich {
		line = phaseStyle.Render(phase) + " " + line
	}
	fmt.Fprintln(r.out, line)
}

func (r *Reporter) FileProcessed(done, total int, _ sparkify.DataFile) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counter := fmt.Sprintf("%d/%d files processed.", done, total)
	if r.mode == ModePlain {
		fmt.Fprintln(r.out, counter)
		return
	}

	fmt.Fprintf(r.out, "\r%s %s", r.bar.ViewAs(fraction(done, total)), counter)
	r.pending = true
	if done >= total {
		r.endLine()
	}
}

// Flush terminates a partially drawn bar line so that output written
// elsewhere starts on a fresh line.
func (r *Reporter) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endLine()
}

// endLine must be called with mu held.
func (r *Reporter) endLine() {
	if r.pending {
		fmt.Fprintln(r.out)
		r.pending = false
	}
}

func (r *Reporter) PhaseFinished(s sparkify.PhaseSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endLine()

	status := fmt.Sprintf("%s: %d/%d files committed in %s", s.Phase, s.Committed, s.Found, s.Duration.Round(time.Millisecond))
	if r.mode == ModeRich {
		if s.Failed() == 0 {
			status = successStyle.Render(symbolCheck + " " + status)
		} else {
			status = warningStyle.Render(symbolCross + " " + status)
		}
	}
	fmt.Fprintln(r.out, status)

	for _, f := range s.Failures {
		line := fmt.Sprintf("  %s %s: %v", f.Status, f.File.RelativePath, f.Err)
		if r.mode == ModeRich {
			line = errorStyle.Render(line)
		}
		fmt.Fprintln(r.out, line)
	}
}

func (r *Reporter) RunFinished(s sparkify.RunSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endLine()

	var rows sparkify.FileResult
	committed, found := 0, 0
	for _, p := range s.Phases {
		rows.Add(p.Rows)
		committed += p.Committed
		found += p.Found
	}

	lines := []string{
		fmt.Sprintf("run %s finished in %s", s.RunID, s.Duration.Round(time.Millisecond)),
		fmt.Sprintf("files:     %d committed, %d failed, %d found", committed, s.Failed(), found),
		fmt.Sprintf("songs:     %d", rows.Songs),
		fmt.Sprintf("artists:   %d", rows.Artists),
		timeLine(rows.TimeRows, s.WeekConvention),
		fmt.Sprintf("users:     %d", rows.UserRows),
		fmt.Sprintf("songplays: %d (%d matched, %d unmatched)", rows.Songplays, rows.LookupHits, rows.LookupMisses),
	}

	if r.mode == ModePlain {
		fmt.Fprintln(r.out, strings.Join(lines, "\n"))
		return
	}
	lines[0] = phaseStyle.Render(lines[0])
	for i := 1; i < len(lines); i++ {
		lines[i] = mutedStyle.Render(lines[i])
	}
	fmt.Fprintln(r.out, summaryBoxStyle.Render(strings.Join(lines, "\n")))
}

func timeLine(n int, convention string) string {
	if convention == "" {
		return fmt.Sprintf("time:      %d", n)
	}
	return fmt.Sprintf("time:      %d (%s weeks)", n, convention)
}

func fraction(done, total int) float64 {
	if total <= 0 {
		return 1
	}
	return float64(done) / float64(total)
}

// Discard is a ProgressReporter that renders nothing.
type Discard struct{}

func (Discard) PhaseStarted(string, string, int)         {}
func (Discard) FileProcessed(int, int, sparkify.DataFile) {}
func (Discard) PhaseFinished(sparkify.PhaseSummary)       {}
func (Discard) RunFinished(sparkify.RunSummary)           {}

var (
	_ sparkify.ProgressReporter = (*Reporter)(nil)
	_ sparkify.ProgressReporter = Discard{}
)
