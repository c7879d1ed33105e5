// README: Quote log backed by PostgreSQL.
package pricing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) SaveQuote(ctx context.Context, q *Quote) error {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO fare_quotes (
			id, pickup, dropoff, distance_km, duration_min, currency, options, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		string(q.ID),
		q.Pickup.Query(),
		q.Drop.Query(),
		q.Trip.DistanceKm,
		q.Trip.DurationMin,
		q.Currency,
		options,
		q.CreatedAt,
	)
	return err
}
