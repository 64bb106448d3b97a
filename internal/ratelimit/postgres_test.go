package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStore_Hit(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	clock := newClock()
	store := NewPostgresStore(db, clock.Now)
	blocked := clock.Now().Add(30 * time.Minute)

	mock.ExpectQuery(`INSERT INTO rate_limits .* ON CONFLICT \(identifier\) DO UPDATE SET .* RETURNING attempt_count, window_start, blocked_until`).
		WithArgs("linkedin_sync_10.0.0.1", clock.Now(), float64(3600), 5).
		WillReturnRows(sqlmock.NewRows([]string{"attempt_count", "window_start", "blocked_until"}).
			AddRow(6, clock.Now().Add(-30*time.Minute), blocked))

	limiter := NewLimiter(store)
	ok, err := limiter.Check(context.Background(), "linkedin_sync_10.0.0.1", 5, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_HitFirstAttempt(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	clock := newClock()
	store := NewPostgresStore(db, clock.Now)

	mock.ExpectQuery(`INSERT INTO rate_limits`).
		WillReturnRows(sqlmock.NewRows([]string{"attempt_count", "window_start", "blocked_until"}).
			AddRow(1, clock.Now(), nil))

	w, err := store.Hit(context.Background(), "id", 5, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, w.AttemptCount)
	assert.Nil(t, w.BlockedUntil)
}

func TestPostgresStore_Error(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO rate_limits`).WillReturnError(errors.New("db down"))

	limiter := NewLimiter(NewPostgresStore(db, nil))
	ok, err := limiter.Check(context.Background(), "id", 5, time.Hour)
	assert.Error(t, err)
	assert.False(t, ok)
}
