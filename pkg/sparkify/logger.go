package sparkify

// Logger provides a pluggable logging interface for ETL operations.
// Implementations must be safe for concurrent use by multiple goroutines.
type Logger interface {
	// Verbose logs detailed diagnostic information.
	// Only logged when verbose mode is enabled.
	Verbose(format string, args ...interface{})

	// Info logs informational messages about normal operations.
	Info(format string, args ...interface{})

	// Warn logs recoverable problems, such as a skipped file.
	Warn(format string, args ...interface{})

	// Error logs error messages.
	Error(format string, args ...interface{})
}

// ProgressReporter receives batch progress. Output is informational only.
type ProgressReporter interface {
	PhaseStarted(phase, root string, total int)
	FileProcessed(done, total int, file DataFile)
	PhaseFinished(summary PhaseSummary)
	RunFinished(summary RunSummary)
}
