package sparkify

import "context"

// Sink is the set of persistence operations the extractors write through.
// Implementations are handed to extractors explicitly; there is no ambient
// connection state.
type Sink interface {
	InsertSong(ctx context.Context, song SongRecord) error
	InsertArtist(ctx context.Context, artist ArtistRecord) error
	InsertTime(ctx context.Context, t TimeRecord) error

	// InsertUser upserts on user id; the last write wins.
	InsertUser(ctx context.Context, user UserRecord) error

	// LookupSongArtist resolves a play to a catalog entry by exact match on
	// title, artist name and duration. A miss returns (nil, nil).
	LookupSongArtist(ctx context.Context, title, artistName string, duration float64) (*SongArtistMatch, error)

	InsertSongplay(ctx context.Context, play SongplayRecord) error
}

// UnitOfWork is a Sink scoped to one source file.
// Either Commit or Rollback must be called exactly once.
type UnitOfWork interface {
	Sink
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store opens units of work against the relational store.
type Store interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}
