package records

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/sparkify-data/sparkify-etl/pkg/sparkify"
)

type songJSON struct {
	SongID          string   `json:"song_id"`
	Title           string   `json:"title"`
	ArtistID        string   `json:"artist_id"`
	Year            int      `json:"year"`
	Duration        float64  `json:"duration"`
	ArtistName      string   `json:"artist_name"`
	ArtistLocation  string   `json:"artist_location"`
	ArtistLatitude  *float64 `json:"artist_latitude"`
	ArtistLongitude *float64 `json:"artist_longitude"`
}

// ParseSongFile decodes a song-metadata file.
//
// The format holds a single record per file; only the first JSON value is
// read and anything after it is ignored. An empty artist_location becomes a
// nil Location.
func ParseSongFile(path string, content []byte) (sparkify.SongRecord, sparkify.ArtistRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(content))

	var raw songJSON
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("file contains no record")
		}
		return sparkify.SongRecord{}, sparkify.ArtistRecord{}, &sparkify.ParseError{Path: path, Err: err}
	}

	for _, required := range []struct{ field, value string }{
		{"song_id", raw.SongID},
		{"title", raw.Title},
		{"artist_id", raw.ArtistID},
	} {
		if strings.TrimSpace(required.value) == "" {
			return sparkify.SongRecord{}, sparkify.ArtistRecord{}, &sparkify.MalformedRecordError{
				Path:    path,
				Line:    1,
				Field:   required.field,
				Message: "required field is missing or empty",
			}
		}
	}

	song := sparkify.SongRecord{
		SongID:   raw.SongID,
		Title:    raw.Title,
		ArtistID: raw.ArtistID,
		Year:     raw.Year,
		Duration: raw.Duration,
	}

	artist := sparkify.ArtistRecord{
		ArtistID:  raw.ArtistID,
		Name:      raw.ArtistName,
		Latitude:  raw.ArtistLatitude,
		Longitude: raw.ArtistLongitude,
	}
	if loc := strings.TrimSpace(raw.ArtistLocation); loc != "" {
		artist.Location = &loc
	}

	return song, artist, nil
}
