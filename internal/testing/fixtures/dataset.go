// Package fixtures builds in-memory song_data and log_data trees for tests.
package fixtures

import (
	"encoding/json"
	"path"
	"strings"

	"github.com/sparkify-data/sparkify-etl/internal/files/filesystem"
)

// Roots of the phase directories inside a built filesystem.
const (
	SongRoot = "/data/song_data"
	LogRoot  = "/data/log_data"
)

// Song is the on-disk shape of a song-metadata file.
type Song struct {
	NumSongs        int      `json:"num_songs"`
	ArtistID        string   `json:"artist_id"`
	ArtistLatitude  *float64 `json:"artist_latitude"`
	ArtistLongitude *float64 `json:"artist_longitude"`
	ArtistLocation  string   `json:"artist_location"`
	ArtistName      string   `json:"artist_name"`
	SongID          string   `json:"song_id"`
	Title           string   `json:"title"`
	Duration        float64  `json:"duration"`
	Year            int      `json:"year"`
}

// Event is the on-disk shape of one activity-log line. Fields left nil are
// written as JSON null, matching non-play events in the dataset.
type Event struct {
	Artist        *string  `json:"artist"`
	Auth          string   `json:"auth"`
	FirstName     string   `json:"firstName"`
	Gender        string   `json:"gender"`
	ItemInSession int      `json:"itemInSession"`
	LastName      string   `json:"lastName"`
	Length        *float64 `json:"length"`
	Level         string   `json:"level"`
	Location      string   `json:"location"`
	Method        string   `json:"method"`
	Page          string   `json:"page"`
	Registration  float64  `json:"registration"`
	SessionID     int64    `json:"sessionId"`
	Song          *string  `json:"song"`
	Status        int      `json:"status"`
	TS            int64    `json:"ts"`
	UserAgent     string   `json:"userAgent"`
	UserID        string   `json:"userId"`
}

// Dataset accumulates files and builds a MemoryFileSystem.
//
//	fs := fixtures.NewDataset().
//	    AddSong("A/A/A/TRAAAAW.json", fixtures.SampleSong()).
//	    AddLog("2018/11/2018-11-15-events.json", fixtures.SamplePlay(), fixtures.SampleHome()).
//	    Build()
type Dataset struct {
	files map[string]string
	dirs  []string
}

func NewDataset() *Dataset {
	return &Dataset{files: make(map[string]string)}
}

// AddSong writes song as a single JSON object below SongRoot.
func (d *Dataset) AddSong(rel string, song Song) *Dataset {
	return d.AddRaw(path.Join(SongRoot, rel), mustJSON(song))
}

// AddLog writes one JSON line per event below LogRoot.
func (d *Dataset) AddLog(rel string, events ...Event) *Dataset {
	lines := make([]string, len(events))
	for i, e := range events {
		lines[i] = mustJSON(e)
	}
	return d.AddRaw(path.Join(LogRoot, rel), strings.Join(lines, "\n"))
}

// AddRaw writes content verbatim at an absolute path.
func (d *Dataset) AddRaw(p, content string) *Dataset {
	d.files[p] = content
	return d
}

// AddDir creates an empty directory.
func (d *Dataset) AddDir(p string) *Dataset {
	d.dirs = append(d.dirs, p)
	return d
}

func (d *Dataset) Build() *filesystem.MemoryFileSystem {
	mfs := filesystem.NewMemoryFileSystem()
	mfs.AddDir(SongRoot)
	mfs.AddDir(LogRoot)
	for _, dir := range d.dirs {
		mfs.AddDir(dir)
	}
	for p, content := range d.files {
		mfs.AddFile(p, content)
	}
	return mfs
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

func ptr[T any](v T) *T { return &v }

// SampleSong is a catalog entry that SamplePlay resolves against.
func SampleSong() Song {
	return Song{
		NumSongs:   1,
		ArtistID:   "ARD7TVE1187B99BFB1",
		ArtistName: "Casual",
		SongID:     "SOMZWCG12A8C13C480",
		Title:      "I Didn't Mean To",
		Duration:   218.93179,
		Year:       0,
	}
}

// SampleLocatedSong has coordinates and a location.
func SampleLocatedSong() Song {
	return Song{
		NumSongs:        1,
		ArtistID:        "ARMJAGH1187FB546F3",
		ArtistLatitude:  ptr(35.14968),
		ArtistLongitude: ptr(-90.04892),
		ArtistLocation:  "Memphis, TN",
		ArtistName:      "The Box Tops",
		SongID:          "SOCIWDW12A8C13D406",
		Title:           "Soul Deep",
		Duration:        148.03546,
		Year:            1969,
	}
}

// SamplePlay is a NextSong event at 2018-11-15 00:38:20 UTC that matches SampleSong.
func SamplePlay() Event {
	return Event{
		Artist:        ptr("Casual"),
		Auth:          "Logged In",
		FirstName:     "Jacob",
		Gender:        "M",
		ItemInSession: 0,
		LastName:      "Klein",
		Length:        ptr(218.93179),
		Level:         "paid",
		Location:      "Tampa-St. Petersburg-Clearwater, FL",
		Method:        "PUT",
		Page:          "NextSong",
		Registration:  1540558108796,
		SessionID:     518,
		Song:          ptr("I Didn't Mean To"),
		Status:        200,
		TS:            1542242300796,
		UserAgent:     `"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_9_4)"`,
		UserID:        "73",
	}
}

// SampleUnmatchedPlay is a NextSong event with no catalog entry.
func SampleUnmatchedPlay() Event {
	e := SamplePlay()
	e.Artist = ptr("Des'ree")
	e.Song = ptr("You Gotta Be")
	e.Length = ptr(246.30812)
	e.TS = 1542242481796
	e.ItemInSession = 1
	return e
}

// SampleHome is a non-play event from the same session.
func SampleHome() Event {
	e := SamplePlay()
	e.Artist, e.Song, e.Length = nil, nil, nil
	e.Page = "Home"
	e.Method = "GET"
	e.TS = 1542242290796
	return e
}
