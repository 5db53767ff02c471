package sparkify

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Run completed
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (invalid arguments or flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration
	ExitConnectionError = 11 // Store unreachable at startup or lost mid-run
	ExitDataDirMissing  = 12 // song_data or log_data root does not exist
	ExitFilesFailed     = 13 // Strict run with per-file failures
	ExitApprovalDenied  = 14 // User declined a destructive operation
)

const (
	// PlayEventPage is the page value of log events that represent a play.
	PlayEventPage = "NextSong"

	// DefaultExtension is the file extension matched during discovery.
	DefaultExtension = ".json"

	// DefaultSongDataPath and DefaultLogDataPath are the phase roots used
	// when no configuration overrides them.
	DefaultSongDataPath = "data/song_data"
	DefaultLogDataPath  = "data/log_data"

	// DefaultDatabase is the target database name of the analytics schema.
	DefaultDatabase = "sparkifydb"

	// DefaultForceApprovalCountdown is how long --force waits before dropping tables.
	DefaultForceApprovalCountdown = 5 * time.Second

	// DefaultRetryInitialDelay is the default initial delay before the first retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between retry attempts.
	DefaultRetryMaxDelay = 30 * time.Second

	// DefaultConnectRetries is the default number of retries of the initial
	// connection. Zero means a connectivity failure ends the run at once.
	DefaultConnectRetries = 0
)

// Phase names used in logs and summaries.
const (
	PhaseSongs = "song_data"
	PhaseLogs  = "log_data"
)
