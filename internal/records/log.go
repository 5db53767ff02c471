package records

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sparkify-data/sparkify-etl/pkg/sparkify"
)

// maxLineBytes bounds a single event line.
const maxLineBytes = 4 << 20

type logJSON struct {
	Page      string          `json:"page"`
	TS        json.RawMessage `json:"ts"`
	UserID    flexString      `json:"userId"`
	FirstName string          `json:"firstName"`
	LastName  string          `json:"lastName"`
	Gender    string          `json:"gender"`
	Level     string          `json:"level"`
	Song      string          `json:"song"`
	Artist    string          `json:"artist"`
	Length    float64         `json:"length"`
	SessionID int64           `json:"sessionId"`
	Location  string          `json:"location"`
	UserAgent string          `json:"userAgent"`
}

// ParseLogFile decodes every event of a log file, one JSON object per line.
// Blank lines are skipped. An empty file yields no events and no error.
func ParseLogFile(path string, content []byte) ([]sparkify.LogEvent, error) {
	sc := bufio.NewScanner(bytes.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var events []sparkify.LogEvent
	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}

		if line[0] != '{' {
			return nil, &sparkify.ParseError{Path: path, Line: lineNum, Err: fmt.Errorf("expected a JSON object, got %q", truncate(line, 32))}
		}

		var raw logJSON
		if err := json.Unmarshal(line, &raw); err != nil {
			return nil, &sparkify.ParseError{Path: path, Line: lineNum, Err: err}
		}

		ts, ok := parseMillis(raw.TS)
		events = append(events, sparkify.LogEvent{
			Line:         lineNum,
			Page:         raw.Page,
			Timestamp:    ts,
			HasTimestamp: ok,
			UserID:       strings.TrimSpace(string(raw.UserID)),
			FirstName:    raw.FirstName,
			LastName:     raw.LastName,
			Gender:       raw.Gender,
			Level:        raw.Level,
			Song:         raw.Song,
			Artist:       raw.Artist,
			Length:       raw.Length,
			SessionID:    raw.SessionID,
			Location:     raw.Location,
			UserAgent:    raw.UserAgent,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, &sparkify.ParseError{Path: path, Line: lineNum + 1, Err: fmt.Errorf("error reading content: %w", err)}
	}

	return events, nil
}

// ValidatePlay checks the fields a play event needs to produce its time,
// user and songplay rows.
func ValidatePlay(path string, e sparkify.LogEvent) error {
	switch {
	case !e.HasTimestamp:
		return &sparkify.MalformedRecordError{Path: path, Line: e.Line, Field: "ts", Message: "timestamp is missing or not an integer number of milliseconds"}
	case e.Timestamp < 0:
		return &sparkify.MalformedRecordError{Path: path, Line: e.Line, Field: "ts", Message: fmt.Sprintf("timestamp %d is before the Unix epoch", e.Timestamp)}
	case e.UserID == "":
		return &sparkify.MalformedRecordError{Path: path, Line: e.Line, Field: "userId", Message: "play event has no user id"}
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
