package retry

import (
	"errors"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sparkify-data/sparkify-etl/pkg/sparkify"
)

// SQLSTATE codes outside the whole-class prefixes that are still worth retrying.
// See https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgCodeSerializationFailure = "40001"
	pgCodeDeadlockDetected     = "40P01"
	pgCodeLockNotAvailable     = "55P03"
)

// Class 08 is connection exception, 53 insufficient resources,
// 57 operator intervention (shutdown, cannot connect now).
var transientClasses = []string{"08", "53", "57"}

// Class 08 and the 57P0x shutdown codes mean the session is gone.
var connectionLossCodes = []string{"08", "57P01", "57P02", "57P03"}

// Driver and socket messages that do not surface as typed errors.
var connectionLossMessages = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"server closed the connection",
	"unexpected eof",
	"conn closed",
	"no such host",
	"network is unreachable",
	"i/o timeout",
}

// Messages that are transient at connect time but do not imply a dropped session.
var transientMessages = []string{
	"too many connections",
	"connection timeout",
}

// PostgreSQLErrorClassifier recognizes transient PostgreSQL and network failures.
type PostgreSQLErrorClassifier struct{}

// NewPostgreSQLErrorClassifier creates a classifier.
func NewPostgreSQLErrorClassifier() *PostgreSQLErrorClassifier {
	return &PostgreSQLErrorClassifier{}
}

// IsTransient reports whether establishing a connection may succeed on retry.
func (c *PostgreSQLErrorClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgCodeSerializationFailure, pgCodeDeadlockDetected, pgCodeLockNotAvailable:
			return true
		}
		return hasAnyPrefix(pgErr.Code, transientClasses)
	}

	if isNetworkFailure(err) {
		return true
	}
	return containsAny(err.Error(), connectionLossMessages) || containsAny(err.Error(), transientMessages)
}

// IsConnectionLoss reports whether err means the database session is no longer
// usable. A failed statement on a healthy connection is not a loss.
func (c *PostgreSQLErrorClassifier) IsConnectionLoss(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return hasAnyPrefix(pgErr.Code, connectionLossCodes)
	}

	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	if isNetworkFailure(err) {
		return true
	}
	return containsAny(err.Error(), connectionLossMessages)
}

func isNetworkFailure(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return true
		}
		for _, errno := range []syscall.Errno{syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ENETUNREACH, syscall.EHOSTUNREACH, syscall.EPIPE} {
			if errors.Is(opErr.Err, errno) {
				return true
			}
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func containsAny(msg string, patterns []string) bool {
	msg = strings.ToLower(msg)
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

var _ sparkify.ErrorClassifier = (*PostgreSQLErrorClassifier)(nil)
