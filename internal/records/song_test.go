package records

import (
	"errors"
	"testing"

	"github.com/sparkify-data/sparkify-etl/pkg/sparkify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSong = `{"num_songs": 1, "artist_id": "ARJIE2Y1187B994AB7", "artist_latitude": null, "artist_longitude": null, "artist_location": "", "artist_name": "Line Renaud", "song_id": "SOUPIRU12A6D4FA1E1", "title": "Der Kleine Dompfaff", "duration": 152.92036, "year": 0}`

func TestParseSongFile_Sample(t *testing.T) {
	song, artist, err := ParseSongFile("A/A/A/TRAAAAW128F429D538.json", []byte(sampleSong))
	require.NoError(t, err)

	assert.Equal(t, "SOUPIRU12A6D4FA1E1", song.SongID)
	assert.Equal(t, "Der Kleine Dompfaff", song.Title)
	assert.Equal(t, "ARJIE2Y1187B994AB7", song.ArtistID)
	assert.Equal(t, 0, song.Year)
	assert.InDelta(t, 152.92036, song.Duration, 1e-9)

	assert.Equal(t, song.ArtistID, artist.ArtistID)
	assert.Equal(t, "Line Renaud", artist.Name)
	assert.Nil(t, artist.Location)
	assert.Nil(t, artist.Latitude)
	assert.Nil(t, artist.Longitude)
}

func TestParseSongFile_ArtistGeo(t *testing.T) {
	content := `{"artist_id": "AR8IEZO1187B99055E", "artist_latitude": 35.14968, "artist_longitude": -90.04892, "artist_location": "Memphis, TN", "artist_name": "Marc Shaiman", "song_id": "SOINLJW12A8C13314C", "title": "City Slickers", "duration": 149.86404, "year": 2008}`

	song, artist, err := ParseSongFile("x.json", []byte(content))
	require.NoError(t, err)

	assert.Equal(t, 2008, song.Year)
	require.NotNil(t, artist.Location)
	assert.Equal(t, "Memphis, TN", *artist.Location)
	require.NotNil(t, artist.Latitude)
	assert.InDelta(t, 35.14968, *artist.Latitude, 1e-9)
	require.NotNil(t, artist.Longitude)
	assert.InDelta(t, -90.04892, *artist.Longitude, 1e-9)
}

func TestParseSongFile_OnlyFirstRecord(t *testing.T) {
	content := sampleSong + "\n" + `{"song_id": "SOSECOND", "title": "Second", "artist_id": "ARSECOND"}`

	song, _, err := ParseSongFile("x.json", []byte(content))
	require.NoError(t, err)
	assert.Equal(t, "SOUPIRU12A6D4FA1E1", song.SongID)
}

func TestParseSongFile_Errors(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		sentinel  error
		wantField string
	}{
		{"empty file", "", sparkify.ErrParse, ""},
		{"whitespace only", "  \n\n", sparkify.ErrParse, ""},
		{"not json", "song_id,title\nSO1,Title", sparkify.ErrParse, ""},
		{"truncated", `{"song_id": "SO1", "title": `, sparkify.ErrParse, ""},
		{"wrong type", `{"song_id": "SO1", "title": "T", "artist_id": "A", "duration": "long"}`, sparkify.ErrParse, ""},
		{"missing song_id", `{"title": "T", "artist_id": "A"}`, sparkify.ErrMalformedRecord, "song_id"},
		{"empty title", `{"song_id": "SO1", "title": " ", "artist_id": "A"}`, sparkify.ErrMalformedRecord, "title"},
		{"missing artist_id", `{"song_id": "SO1", "title": "T"}`, sparkify.ErrMalformedRecord, "artist_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseSongFile("bad.json", []byte(tt.content))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel), "got %v", err)
			assert.Contains(t, err.Error(), "bad.json")

			if tt.wantField != "" {
				var mre *sparkify.MalformedRecordError
				require.True(t, errors.As(err, &mre))
				assert.Equal(t, tt.wantField, mre.Field)
			}
		})
	}
}
