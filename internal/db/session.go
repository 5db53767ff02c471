package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sparkify-data/sparkify-etl/pkg/sparkify"
)

// Session is one connection held for the whole run. All files share it, and
// each file runs in its own transaction on it.
type Session struct {
	conn *pgxpool.Conn
}

// AcquireSession takes a dedicated connection from pool.
func AcquireSession(ctx context.Context, pool *pgxpool.Pool) (*Session, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: acquire connection: %w", sparkify.ErrConnectionFailed, err)
	}
	return &Session{conn: conn}, nil
}

func (s *Session) Begin(ctx context.Context) (pgx.Tx, error) {
	return s.conn.Begin(ctx)
}

func (s *Session) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return s.conn.Exec(ctx, sql, args...)
}

// Release returns the connection to the pool.
func (s *Session) Release() {
	s.conn.Release()
}
