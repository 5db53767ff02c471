package extract

import (
	"github.com/sparkify-data/sparkify-etl/internal/calendar"
	"github.com/sparkify-data/sparkify-etl/internal/records"
	"github.com/sparkify-data/sparkify-etl/pkg/sparkify"
)

// PendingPlay is a play event whose songplay row still needs the catalog lookup.
type PendingPlay struct {
	Event sparkify.LogEvent
	Time  sparkify.TimeRecord
}

// Songplay builds the fact row from the lookup outcome. A nil match leaves
// both identity columns null.
func (p PendingPlay) Songplay(match *sparkify.SongArtistMatch) sparkify.SongplayRecord {
	songID, artistID := match.Resolve()
	return sparkify.SongplayRecord{
		StartTime: p.Time.StartTime,
		UserID:    p.Event.UserID,
		Level:     p.Event.Level,
		SongID:    songID,
		ArtistID:  artistID,
		SessionID: p.Event.SessionID,
		Location:  p.Event.Location,
		UserAgent: p.Event.UserAgent,
	}
}

// LogBatch is the sink-independent result of transforming one log file.
// Times, Users and Plays are index-aligned and in file order.
type LogBatch struct {
	Events int
	Times  []sparkify.TimeRecord
	Users  []sparkify.UserRecord
	Plays  []PendingPlay
}

// TransformLog keeps the play events and derives their time and user rows.
// The first invalid play aborts the whole batch.
func TransformLog(path string, events []sparkify.LogEvent, conv calendar.WeekConvention) (LogBatch, error) {
	batch := LogBatch{Events: len(events)}

	for _, e := range events {
		if !e.IsPlay() {
			continue
		}
		if err := records.ValidatePlay(path, e); err != nil {
			return LogBatch{}, err
		}

		tr := calendar.Decompose(e.Timestamp, conv)
		batch.Times = append(batch.Times, tr)
		batch.Users = append(batch.Users, sparkify.UserRecord{
			UserID:    e.UserID,
			FirstName: e.FirstName,
			LastName:  e.LastName,
			Gender:    e.Gender,
			Level:     e.Level,
		})
		batch.Plays = append(batch.Plays, PendingPlay{Event: e, Time: tr})
	}

	return batch, nil
}
