package sparkify

import (
	"errors"
	"fmt"
	"time"
)

// RunConfig contains all parameters needed for one ETL run.
type RunConfig struct {
	// SongDataPath is the root directory of the song-metadata files.
	SongDataPath string

	// LogDataPath is the root directory of the activity-log files.
	LogDataPath string

	// Extension is the file extension matched during discovery (".json").
	Extension string

	// WeekConvention names the calendar convention used for week and weekday
	// columns of the time dimension ("iso" or "us").
	WeekConvention string

	// Connection holds the resolved connection parameters.
	Connection *ConnectionConfig

	// Timeout bounds the whole run. Zero means no limit.
	Timeout time.Duration

	// Strict turns per-file failures into a non-zero exit status.
	Strict bool

	// DryRun extracts into an in-memory store instead of the database.
	DryRun bool

	// CreateSchema creates the analytics tables before the song phase.
	CreateSchema bool

	// Verbose enables detailed logging
	Verbose bool
}

// Validate checks if the RunConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *RunConfig) Validate() error {
	var errs []error

	if c.SongDataPath == "" {
		errs = append(errs, fmt.Errorf("SongDataPath is required: %w", ErrInvalidConfig))
	}
	if c.LogDataPath == "" {
		errs = append(errs, fmt.Errorf("LogDataPath is required: %w", ErrInvalidConfig))
	}
	if c.Extension == "" {
		errs = append(errs, fmt.Errorf("Extension is required: %w", ErrInvalidConfig))
	}
	if c.Connection == nil {
		if !c.DryRun {
			errs = append(errs, fmt.Errorf("Connection is required: %w", ErrInvalidConfig))
		}
	} else if c.Connection.Database == "" {
		errs = append(errs, fmt.Errorf("database name is required: %w", ErrInvalidConfig))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// ConnectionConfig represents parsed connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Additional connection parameters
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// ConnectRetries is how often a transient failure of the initial
	// connection is retried. Nothing is retried once loading has started.
	ConnectRetries int

	// Cloud authentication parameters, used by the matching AuthMethod only.
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
	AWSRegion         string
	GoogleInstance    string // project:region:instance
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS RDS IAM authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Entra ID
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// ParseAuthMethod maps a configuration value to an AuthMethod.
// An empty value selects AuthMethodStandard.
func ParseAuthMethod(s string) (AuthMethod, error) {
	switch s {
	case "", "standard", "password":
		return AuthMethodStandard, nil
	case "aws", "aws-iam":
		return AuthMethodAWSIAM, nil
	case "google", "google-iam":
		return AuthMethodGoogleIAM, nil
	case "azure", "azure-entra-id":
		return AuthMethodAzureEntraID, nil
	default:
		return AuthMethodStandard, fmt.Errorf("unknown auth method %q: %w", s, ErrInvalidConfig)
	}
}

// FileStatus is the terminal state of one file in a batch.
type FileStatus int

const (
	FileCommitted FileStatus = iota
	FileSkipped              // could not be read or parsed; nothing was written
	FileRolledBack           // extraction started and the unit of work was rolled back
)

func (s FileStatus) String() string {
	switch s {
	case FileCommitted:
		return "committed"
	case FileSkipped:
		return "skipped"
	case FileRolledBack:
		return "rolled back"
	default:
		return fmt.Sprintf("FileStatus(%d)", int(s))
	}
}

// FileFailure records why a file did not commit.
type FileFailure struct {
	File   DataFile
	Status FileStatus
	Err    error
}

// PhaseSummary describes one pass of the batch driver over a root directory.
type PhaseSummary struct {
	Phase     string
	Root      string
	Found     int
	Committed int
	Failures  []FileFailure
	Rows      FileResult
	Duration  time.Duration
}

// Failed returns the number of files that did not commit.
func (s PhaseSummary) Failed() int {
	return len(s.Failures)
}

// RunSummary aggregates both phases of a run.
type RunSummary struct {
	RunID string
	// WeekConvention names the convention the time rows were built with.
	WeekConvention string
	Phases         []PhaseSummary
	Duration       time.Duration
}

// Failed returns the number of failed files across all phases.
func (s RunSummary) Failed() int {
	n := 0
	for _, p := range s.Phases {
		n += p.Failed()
	}
	return n
}
