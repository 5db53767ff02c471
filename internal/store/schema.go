package store

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed schema.sql
var schemaSQL string

// Execer runs statements without returning rows.
// *pgxpool.Pool, *pgxpool.Conn, *pgx.Conn and pgx.Tx all satisfy it.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// SchemaSQL returns the DDL of the analytics schema.
func SchemaSQL() string {
	return schemaSQL
}

// CreateSchema creates the analytics tables if they do not exist.
func CreateSchema(ctx context.Context, db Execer) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// DropSchema drops the analytics tables and their data.
func DropSchema(ctx context.Context, db Execer) error {
	if _, err := db.Exec(ctx, queryDropTables); err != nil {
		return fmt.Errorf("failed to drop schema: %w", err)
	}
	return nil
}
