// README: User profile store backed by PostgreSQL.
package auth

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PgUserStore struct {
	db *pgxpool.Pool
}

func NewPgUserStore(db *pgxpool.Pool) *PgUserStore {
	return &PgUserStore{db: db}
}

// Upsert keeps existing phone/email when the new login does not carry them.
func (s *PgUserStore) Upsert(ctx context.Context, u User) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO users (uid, phone, email, role, last_login_at)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5)
		ON CONFLICT (uid) DO UPDATE SET
			phone = COALESCE(EXCLUDED.phone, users.phone),
			email = COALESCE(EXCLUDED.email, users.email),
			role = EXCLUDED.role,
			last_login_at = EXCLUDED.last_login_at`,
		u.UID, u.Phone, u.Email, string(u.Role), u.LastLoginAt,
	)
	return err
}
