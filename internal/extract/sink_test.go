package extract

import (
	"context"
	"fmt"

	"github.com/sparkify-data/sparkify-etl/pkg/sparkify"
)

// recordingSink logs every call in order and answers lookups from a fixed catalog.
type recordingSink struct {
	calls     []string
	songs     []sparkify.SongRecord
	artists   []sparkify.ArtistRecord
	times     []sparkify.TimeRecord
	users     []sparkify.UserRecord
	songplays []sparkify.SongplayRecord

	catalog map[string]sparkify.SongArtistMatch // key: title|artist|duration
	failOn  string
	failErr error
}

func catalogKey(title, artist string, duration float64) string {
	return fmt.Sprintf("%s|%s|%v", title, artist, duration)
}

func (s *recordingSink) record(call string) error {
	s.calls = append(s.calls, call)
	if call == s.failOn {
		return s.failErr
	}
	return nil
}

func (s *recordingSink) InsertSong(_ context.Context, r sparkify.SongRecord) error {
	if err := s.record("song"); err != nil {
		return err
	}
	s.songs = append(s.songs, r)
	return nil
}

func (s *recordingSink) InsertArtist(_ context.Context, r sparkify.ArtistRecord) error {
	if err := s.record("artist"); err != nil {
		return err
	}
	s.artists = append(s.artists, r)
	return nil
}

func (s *recordingSink) InsertTime(_ context.Context, r sparkify.TimeRecord) error {
	if err := s.record("time"); err != nil {
		return err
	}
	s.times = append(s.times, r)
	return nil
}

func (s *recordingSink) InsertUser(_ context.Context, r sparkify.UserRecord) error {
	if err := s.record("user"); err != nil {
		return err
	}
	s.users = append(s.users, r)
	return nil
}

func (s *recordingSink) LookupSongArtist(_ context.Context, title, artist string, duration float64) (*sparkify.SongArtistMatch, error) {
	if err := s.record("lookup"); err != nil {
		return nil, err
	}
	if m, ok := s.catalog[catalogKey(title, artist, duration)]; ok {
		return &m, nil
	}
	return nil, nil
}

func (s *recordingSink) InsertSongplay(_ context.Context, r sparkify.SongplayRecord) error {
	if err := s.record("songplay"); err != nil {
		return err
	}
	s.songplays = append(s.songplays, r)
	return nil
}

var _ sparkify.Sink = (*recordingSink)(nil)
