// README: Postgres connection pool initialization using pgxpool.
package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

func NewDB(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return pool, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS fare_quotes (
		id           TEXT PRIMARY KEY,
		pickup       TEXT NOT NULL,
		dropoff      TEXT NOT NULL,
		distance_km  DOUBLE PRECISION NOT NULL,
		duration_min INTEGER NOT NULL,
		currency     TEXT NOT NULL,
		options      JSONB NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		uid           TEXT PRIMARY KEY,
		phone         TEXT,
		email         TEXT,
		role          TEXT NOT NULL,
		last_login_at TIMESTAMPTZ NOT NULL
	)`,
}

// Tables lists what Migrate creates.
var Tables = []string{"fare_quotes", "users"}

// Migrate creates the quote log and profile tables when missing.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
