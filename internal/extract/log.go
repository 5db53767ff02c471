package extract

import (
	"context"
	"fmt"

	"github.com/sparkify-data/sparkify-etl/internal/calendar"
	"github.com/sparkify-data/sparkify-etl/internal/records"
	"github.com/sparkify-data/sparkify-etl/pkg/sparkify"
)

// LogExtractor loads one activity-log file into the time, users and
// songplays tables.
type LogExtractor struct {
	convention calendar.WeekConvention
}

// NewLogExtractor creates a LogExtractor that numbers weeks and weekdays
// under conv.
func NewLogExtractor(conv calendar.WeekConvention) *LogExtractor {
	return &LogExtractor{convention: conv}
}

func (e *LogExtractor) Name() string { return sparkify.PhaseLogs }

// Extract writes all time rows, then all user rows, then one songplay per
// play event, resolving each against the catalog already in the store.
func (e *LogExtractor) Extract(ctx context.Context, sink sparkify.Sink, file sparkify.DataFile, content []byte) (sparkify.FileResult, error) {
	events, err := records.ParseLogFile(file.RelativePath, content)
	if err != nil {
		return sparkify.FileResult{}, err
	}

	batch, err := TransformLog(file.RelativePath, events, e.convention)
	if err != nil {
		return sparkify.FileResult{}, err
	}

	result := sparkify.FileResult{Events: batch.Events}

	for _, tr := range batch.Times {
		if err := sink.InsertTime(ctx, tr); err != nil {
			return result, fmt.Errorf("failed to insert time row %s: %w", tr.StartTime.Format("2006-01-02T15:04:05.000Z07:00"), err)
		}
		result.TimeRows++
	}

	for _, u := range batch.Users {
		if err := sink.InsertUser(ctx, u); err != nil {
			return result, fmt.Errorf("failed to upsert user %s: %w", u.UserID, err)
		}
		result.UserRows++
	}

	for _, p := range batch.Plays {
		match, err := sink.LookupSongArtist(ctx, p.Event.Song, p.Event.Artist, p.Event.Length)
		if err != nil {
			return result, fmt.Errorf("catalog lookup failed (line %d): %w", p.Event.Line, err)
		}
		if match != nil {
			result.LookupHits++
		} else {
			result.LookupMisses++
		}

		if err := sink.InsertSongplay(ctx, p.Songplay(match)); err != nil {
			return result, fmt.Errorf("failed to insert songplay (line %d): %w", p.Event.Line, err)
		}
		result.Songplays++
	}

	return result, nil
}

var _ sparkify.Extractor = (*LogExtractor)(nil)
