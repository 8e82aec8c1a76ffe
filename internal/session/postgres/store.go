package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tesig/console/internal/session"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Save(ctx context.Context, id string, record session.Record) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO console_sessions (session_id, token, user_record, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id) DO UPDATE
		SET token = EXCLUDED.token, user_record = EXCLUDED.user_record, expires_at = EXCLUDED.expires_at
	`, id, record.Token, record.User, record.ExpiresAt.UTC())
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, id string) (session.Record, error) {
	var record session.Record
	row := s.pool.QueryRow(ctx, `
		SELECT token, user_record, expires_at
		FROM console_sessions
		WHERE session_id = $1
	`, id)
	if err := row.Scan(&record.Token, &record.User, &record.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return session.Record{}, session.ErrNotFound
		}
		return session.Record{}, fmt.Errorf("load session: %w", err)
	}
	return record, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM console_sessions WHERE session_id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM console_sessions WHERE expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
