package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sparkify-data/sparkify-etl/internal/retry"
	"github.com/sparkify-data/sparkify-etl/pkg/sparkify"
)

// TxBeginner starts transactions.
// *pgxpool.Pool, *pgxpool.Conn and *pgx.Conn all satisfy it.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore is the relational sink. Each unit of work is one pgx.Tx.
//
// Not safe for concurrent use: the pipeline hands it a single dedicated
// connection and processes files serially.
type PostgresStore struct {
	db         TxBeginner
	classifier *retry.PostgreSQLErrorClassifier
}

// NewPostgresStore creates a store over the given connection.
// Panics if db is nil.
func NewPostgresStore(db TxBeginner) *PostgresStore {
	if db == nil {
		panic("db cannot be nil")
	}
	return &PostgresStore{
		db:         db,
		classifier: retry.NewPostgreSQLErrorClassifier(),
	}
}

// Begin opens a transaction for one file.
func (s *PostgresStore) Begin(ctx context.Context) (sparkify.UnitOfWork, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, s.wrap("begin transaction", err)
	}
	return &pgUnitOfWork{tx: tx, store: s}, nil
}

// wrap tags connection-level failures with ErrConnectionFailed so the batch
// driver stops the run instead of moving on to the next file.
func (s *PostgresStore) wrap(op string, err error) error {
	if s.classifier.IsConnectionLoss(err) {
		return fmt.Errorf("%s: %w: %w", op, sparkify.ErrConnectionFailed, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

type pgUnitOfWork struct {
	tx    pgx.Tx
	store *PostgresStore
}

func (u *pgUnitOfWork) InsertSong(ctx context.Context, song sparkify.SongRecord) error {
	_, err := u.tx.Exec(ctx, querySongInsert, song.SongID, song.Title, song.ArtistID, song.Year, song.Duration)
	if err != nil {
		return u.store.wrap("insert song", err)
	}
	return nil
}

func (u *pgUnitOfWork) InsertArtist(ctx context.Context, artist sparkify.ArtistRecord) error {
	_, err := u.tx.Exec(ctx, queryArtistInsert, artist.ArtistID, artist.Name, artist.Location, artist.Latitude, artist.Longitude)
	if err != nil {
		return u.store.wrap("insert artist", err)
	}
	return nil
}

func (u *pgUnitOfWork) InsertTime(ctx context.Context, t sparkify.TimeRecord) error {
	_, err := u.tx.Exec(ctx, queryTimeInsert, t.StartTime, t.Hour, t.Day, t.Week, t.Month, t.Year, t.Weekday)
	if err != nil {
		return u.store.wrap("insert time", err)
	}
	return nil
}

func (u *pgUnitOfWork) InsertUser(ctx context.Context, user sparkify.UserRecord) error {
	_, err := u.tx.Exec(ctx, queryUserUpsert, user.UserID, user.FirstName, user.LastName, user.Gender, user.Level)
	if err != nil {
		return u.store.wrap("upsert user", err)
	}
	return nil
}

func (u *pgUnitOfWork) LookupSongArtist(ctx context.Context, title, artistName string, duration float64) (*sparkify.SongArtistMatch, error) {
	var m sparkify.SongArtistMatch
	err := u.tx.QueryRow(ctx, querySongArtistLookup, title, artistName, duration).Scan(&m.SongID, &m.ArtistID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, u.store.wrap("lookup song", err)
	}
	return &m, nil
}

func (u *pgUnitOfWork) InsertSongplay(ctx context.Context, play sparkify.SongplayRecord) error {
	_, err := u.tx.Exec(ctx, querySongplayInsert,
		play.StartTime, play.UserID, play.Level, play.SongID, play.ArtistID,
		play.SessionID, play.Location, play.UserAgent)
	if err != nil {
		return u.store.wrap("insert songplay", err)
	}
	return nil
}

func (u *pgUnitOfWork) Commit(ctx context.Context) error {
	if err := u.tx.Commit(ctx); err != nil {
		return u.store.wrap("commit", err)
	}
	return nil
}

// Rollback is a no-op on an already finished transaction.
func (u *pgUnitOfWork) Rollback(ctx context.Context) error {
	err := u.tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return u.store.wrap("rollback", err)
	}
	return nil
}

var (
	_ sparkify.Store      = (*PostgresStore)(nil)
	_ sparkify.UnitOfWork = (*pgUnitOfWork)(nil)
)
