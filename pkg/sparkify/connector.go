package sparkify

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connector establishes a connection pool to the relational store.
type Connector interface {
	Connect(ctx context.Context) (*pgxpool.Pool, error)
}
