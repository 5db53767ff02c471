package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sparkify-data/sparkify-etl/pkg/sparkify"
)

// ErrUnitFinished is returned when a unit of work is used after Commit or Rollback.
var ErrUnitFinished = errors.New("unit of work already finished")

// MemoryStore is an in-process Store with the same conflict semantics as the
// PostgreSQL schema. It backs dry runs and tests.
// Safe for concurrent use.
type MemoryStore struct {
	mu        sync.Mutex
	songs     map[string]sparkify.SongRecord
	artists   map[string]sparkify.ArtistRecord
	times     map[time.Time]sparkify.TimeRecord
	users     map[string]sparkify.UserRecord
	songplays []sparkify.SongplayRecord
	commits   int
	rollbacks int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		songs:   make(map[string]sparkify.SongRecord),
		artists: make(map[string]sparkify.ArtistRecord),
		times:   make(map[time.Time]sparkify.TimeRecord),
		users:   make(map[string]sparkify.UserRecord),
	}
}

// Begin opens a unit of work. Writes stay private to it until Commit.
func (s *MemoryStore) Begin(_ context.Context) (sparkify.UnitOfWork, error) {
	return &memoryUnit{store: s}, nil
}

// Snapshot is a copy of the committed contents of a MemoryStore.
type Snapshot struct {
	Songs     []sparkify.SongRecord
	Artists   []sparkify.ArtistRecord
	Times     []sparkify.TimeRecord
	Users     map[string]sparkify.UserRecord
	Songplays []sparkify.SongplayRecord
	Commits   int
	Rollbacks int
}

// Snapshot returns the committed rows. Slices are sorted by primary key,
// songplays keep insertion order.
func (s *MemoryStore) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Users:     make(map[string]sparkify.UserRecord, len(s.users)),
		Songplays: append([]sparkify.SongplayRecord(nil), s.songplays...),
		Commits:   s.commits,
		Rollbacks: s.rollbacks,
	}
	for _, song := range s.songs {
		snap.Songs = append(snap.Songs, song)
	}
	sort.Slice(snap.Songs, func(i, j int) bool { return snap.Songs[i].SongID < snap.Songs[j].SongID })
	for _, a := range s.artists {
		snap.Artists = append(snap.Artists, a)
	}
	sort.Slice(snap.Artists, func(i, j int) bool { return snap.Artists[i].ArtistID < snap.Artists[j].ArtistID })
	for _, t := range s.times {
		snap.Times = append(snap.Times, t)
	}
	sort.Slice(snap.Times, func(i, j int) bool { return snap.Times[i].StartTime.Before(snap.Times[j].StartTime) })
	for id, u := range s.users {
		snap.Users[id] = u
	}
	return snap
}

// memoryUnit buffers operations and replays them on Commit.
type memoryUnit struct {
	store    *MemoryStore
	ops      []func(s *MemoryStore)
	songs    []sparkify.SongRecord
	artists  []sparkify.ArtistRecord
	finished bool
}

func (u *memoryUnit) stage(op func(s *MemoryStore)) error {
	if u.finished {
		return ErrUnitFinished
	}
	u.ops = append(u.ops, op)
	return nil
}

func (u *memoryUnit) InsertSong(_ context.Context, song sparkify.SongRecord) error {
	if err := u.stage(func(s *MemoryStore) {
		if _, ok := s.songs[song.SongID]; !ok {
			s.songs[song.SongID] = song
		}
	}); err != nil {
		return err
	}
	u.songs = append(u.songs, song)
	return nil
}

func (u *memoryUnit) InsertArtist(_ context.Context, artist sparkify.ArtistRecord) error {
	if err := u.stage(func(s *MemoryStore) {
		if _, ok := s.artists[artist.ArtistID]; !ok {
			s.artists[artist.ArtistID] = artist
		}
	}); err != nil {
		return err
	}
	u.artists = append(u.artists, artist)
	return nil
}

func (u *memoryUnit) InsertTime(_ context.Context, t sparkify.TimeRecord) error {
	return u.stage(func(s *MemoryStore) {
		if _, ok := s.times[t.StartTime]; !ok {
			s.times[t.StartTime] = t
		}
	})
}

func (u *memoryUnit) InsertUser(_ context.Context, user sparkify.UserRecord) error {
	return u.stage(func(s *MemoryStore) {
		s.users[user.UserID] = user
	})
}

// LookupSongArtist sees committed rows plus this unit's own catalog writes,
// like a statement inside a transaction.
func (u *memoryUnit) LookupSongArtist(_ context.Context, title, artistName string, duration float64) (*sparkify.SongArtistMatch, error) {
	if u.finished {
		return nil, ErrUnitFinished
	}

	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	artists := make(map[string]sparkify.ArtistRecord, len(u.store.artists)+len(u.artists))
	for id, a := range u.store.artists {
		artists[id] = a
	}
	for _, a := range u.artists {
		if _, ok := artists[a.ArtistID]; !ok {
			artists[a.ArtistID] = a
		}
	}

	candidates := make([]sparkify.SongRecord, 0, len(u.store.songs)+len(u.songs))
	for _, song := range u.store.songs {
		candidates = append(candidates, song)
	}
	for _, song := range u.songs {
		if _, ok := u.store.songs[song.SongID]; !ok {
			candidates = append(candidates, song)
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].SongID < candidates[j].SongID })

	for _, song := range candidates {
		if song.Title != title || song.Duration != duration {
			continue
		}
		if a, ok := artists[song.ArtistID]; ok && a.Name == artistName {
			return &sparkify.SongArtistMatch{SongID: song.SongID, ArtistID: a.ArtistID}, nil
		}
	}
	return nil, nil
}

func (u *memoryUnit) InsertSongplay(_ context.Context, play sparkify.SongplayRecord) error {
	if (play.SongID == nil) != (play.ArtistID == nil) {
		return errors.New(`new row for relation "songplays" violates check constraint "songplays_match_pair"`)
	}
	return u.stage(func(s *MemoryStore) {
		s.songplays = append(s.songplays, play)
	})
}

func (u *memoryUnit) Commit(_ context.Context) error {
	if u.finished {
		return ErrUnitFinished
	}
	u.finished = true

	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	for _, op := range u.ops {
		op(u.store)
	}
	u.store.commits++
	return nil
}

func (u *memoryUnit) Rollback(_ context.Context) error {
	if u.finished {
		return nil
	}
	u.finished = true
	u.ops = nil

	u.store.mu.Lock()
	u.store.rollbacks++
	u.store.mu.Unlock()
	return nil
}

var (
	_ sparkify.Store      = (*MemoryStore)(nil)
	_ sparkify.UnitOfWork = (*memoryUnit)(nil)
)
