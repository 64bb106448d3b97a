package ratelimit

import (
	"context"
	"database/sql"
	"log/slog"
	"time"
)

// PostgresStore shares windows across instances through the rate_limits table.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresStore(db *sql.DB, now func() time.Time) *PostgresStore {
	if now == nil {
		now = time.Now
	}
	return &PostgresStore{db: db, now: now}
}

func (s *PostgresStore) Hit(ctx context.Context, identifier string, maxAttempts int, window time.Duration) (*Window, error) {
	query := `
		INSERT INTO rate_limits (identifier, attempt_count, window_start, blocked_until, updated_at)
		VALUES ($1, 1, $2::timestamptz, NULL, $2::timestamptz)
		ON CONFLICT (identifier) DO UPDATE SET
			attempt_count = CASE
				WHEN rate_limits.window_start + ($3::double precision * INTERVAL '1 second') <= $2::timestamptz THEN 1
				ELSE rate_limits.attempt_count + 1
			END,
			window_start = CASE
				WHEN rate_limits.window_start + ($3::double precision * INTERVAL '1 second') <= $2::timestamptz THEN $2::timestamptz
				ELSE rate_limits.window_start
			END,
			blocked_until = CASE
				WHEN rate_limits.window_start + ($3::double precision * INTERVAL '1 second') <= $2::timestamptz THEN NULL
				WHEN rate_limits.attempt_count + 1 > $4 THEN rate_limits.window_start + ($3::double precision * INTERVAL '1 second')
				ELSE NULL
			END,
			updated_at = $2::timestamptz
		RETURNING attempt_count, window_start, blocked_until
	`

	w := Window{Identifier: identifier}
	var blockedUntil sql.NullTime
	err := s.db.QueryRowContext(ctx, query, identifier, s.now(), window.Seconds(), maxAttempts).
		Scan(&w.AttemptCount, &w.WindowStart, &blockedUntil)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	if blockedUntil.Valid {
		w.BlockedUntil = &blockedUntil.Time
	}
	return &w, nil
}
