package progress

import "github.com/sparkify-data/sparkify-etl/pkg/sparkify"

// verboseReporter is implemented by loggers that can say whether Verbose
// calls produce output.
type verboseReporter interface {
	VerboseEnabled() bool
}

// barLogger ends a partially drawn bar line before each log line, so the
// bar on stdout and log lines on stderr do not share a terminal row.
type barLogger struct {
	inner    sparkify.Logger
	reporter *Reporter
	verbose  bool
}

// Logger wraps inner so that its output never lands on the bar's line.
func (r *Reporter) Logger(inner sparkify.Logger) sparkify.Logger {
	verbose := true
	if v, ok := inner.(verboseReporter); ok {
		verbose = v.VerboseEnabled()
	}
	return &barLogger{inner: inner, reporter: r, verbose: verbose}
}

func (l *barLogger) Verbose(format string, args ...interface{}) {
	if l.verbose {
		l.reporter.Flush()
	}
	l.inner.Verbose(format, args...)
}

func (l *barLogger) Info(format string, args ...interface{}) {
	l.reporter.Flush()
	l.inner.Info(format, args...)
}

func (l *barLogger) Warn(format string, args ...interface{}) {
	l.reporter.Flush()
	l.inner.Warn(format, args...)
}

func (l *barLogger) Error(format string, args ...interface{}) {
	l.reporter.Flush()
	l.inner.Error(format, args...)
}

var _ sparkify.Logger = (*barLogger)(nil)
