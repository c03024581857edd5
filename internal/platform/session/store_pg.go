package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const sessionColumns = `id, token, roles, email, appointment_id, created_at, last_seen`

type pgStore struct {
	pool *pgxpool.Pool
}

// NewPGStore returns a Store backed by the portal_session table created by
// the db package migrations.
func NewPGStore(pool *pgxpool.Pool) *pgStore {
	return &pgStore{pool: pool}
}

func (r *pgStore) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	var s Session
	err := r.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM portal_session WHERE id = $1`, id).
		Scan(&s.ID, &s.AccessToken, &s.Roles, &s.Email, &s.AppointmentID, &s.CreatedAt, &s.LastSeen)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *pgStore) Save(ctx context.Context, s *Session) error {
	if s == nil || s.ID == uuid.Nil {
		return fmt.Errorf("session id is required")
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO portal_session (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			token = EXCLUDED.token,
			roles = EXCLUDED.roles,
			email = EXCLUDED.email,
			appointment_id = EXCLUDED.appointment_id,
			last_seen = EXCLUDED.last_seen`,
		s.ID, s.AccessToken, s.Roles, s.Email, s.AppointmentID, s.CreatedAt, s.LastSeen,
	)
	return err
}

func (r *pgStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM portal_session WHERE id = $1`, id)
	return err
}

func (r *pgStore) DeleteIdle(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM portal_session WHERE last_seen < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
