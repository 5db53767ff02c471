package sparkify

import "time"

// SongRecord is one row of the songs dimension.
// Year is 0 when the source does not know the release year.
type SongRecord struct {
	SongID   string
	Title    string
	ArtistID string
	Year     int
	Duration float64
}

// ArtistRecord is one row of the artists dimension, co-extracted with a SongRecord.
// Location, Latitude and Longitude are nil when the source leaves them empty.
type ArtistRecord struct {
	ArtistID  string
	Name      string
	Location  *string
	Latitude  *float64
	Longitude *float64
}

// LogEvent is a single activity-log entry as it appears in a log file.
// Only events whose Page is PlayEventPage represent a play.
type LogEvent struct {
	Line      int // 1-based line in the source file
	Page      string
	Timestamp int64 // milliseconds since the Unix epoch
	UserID    string
	FirstName string
	LastName  string
	Gender    string
	Level     string
	Song      string
	Artist    string
	Length    float64
	SessionID int64
	Location  string
	UserAgent string

	// HasTimestamp is false when the ts field was absent or not an integer.
	HasTimestamp bool
}

// IsPlay reports whether the event represents a completed song playback.
func (e LogEvent) IsPlay() bool {
	return e.Page == PlayEventPage
}

// TimeRecord is one row of the time dimension, decomposed from a play timestamp.
// Week and Weekday follow the run's week convention.
type TimeRecord struct {
	StartTime time.Time
	Hour      int
	Day       int
	Week      int
	Month     int
	Year      int
	Weekday   int
}

// UserRecord is a snapshot of a user's state at the time of a play.
type UserRecord struct {
	UserID    string
	FirstName string
	LastName  string
	Gender    string
	Level     string
}

// SongplayRecord is one row of the songplays fact table.
// SongID and ArtistID are either both nil (no catalog match) or both set.
type SongplayRecord struct {
	StartTime time.Time
	UserID    string
	Level     string
	SongID    *string
	ArtistID  *string
	SessionID int64
	Location  string
	UserAgent string
}

// Matched reports whether the songplay was resolved against the catalog.
func (r SongplayRecord) Matched() bool {
	return r.SongID != nil && r.ArtistID != nil
}

// SongArtistMatch is the result of a successful catalog lookup.
type SongArtistMatch struct {
	SongID   string
	ArtistID string
}

// Resolve builds a SongplayRecord's identity columns from a lookup outcome.
// The pair is always set together, so a miss yields two nils.
func (m *SongArtistMatch) Resolve() (songID, artistID *string) {
	if m == nil {
		return nil, nil
	}
	s, a := m.SongID, m.ArtistID
	return &s, &a
}
