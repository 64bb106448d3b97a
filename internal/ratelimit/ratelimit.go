// Package ratelimit gates repeated operations per identifier with a fixed
// attempt window. The backing Store decides where the counters live.
package ratelimit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	config "github.com/polrydian/polrydian-api/configs"
)

// Window is the counter state for one identifier after a hit.
type Window struct {
	Identifier   string
	AttemptCount int
	WindowStart  time.Time
	BlockedUntil *time.Time
}

// Store records one attempt for identifier and returns the resulting window.
// A window older than the given duration is reset before counting.
type Store interface {
	Hit(ctx context.Context, identifier string, maxAttempts int, window time.Duration) (*Window, error)
}

type Limiter struct {
	store Store
}

func NewLimiter(store Store) *Limiter {
	return &Limiter{store: store}
}

// Check counts an attempt and reports whether it is within maxAttempts.
// The maxAttempts-th attempt is allowed, the next one is not.
func (l *Limiter) Check(ctx context.Context, identifier string, maxAttempts int, window time.Duration) (bool, error) {
	w, err := l.store.Hit(ctx, identifier, maxAttempts, window)
	if err != nil {
		slog.Error("rate limit store failed", "identifier", identifier, "error", err)
		return false, err
	}

	allowed := w.AttemptCount <= maxAttempts
	if !allowed {
		slog.Warn("rate limit exceeded", "identifier", identifier, "attempts", w.AttemptCount, "max", maxAttempts)
	}
	return allowed, nil
}

// NewStore builds the store named by backend.
func NewStore(backend string, db *sql.DB, rdb *redis.Client) (Store, error) {
	switch backend {
	case "", config.RateLimitMemory:
		return NewMemoryStore(time.Now), nil
	case config.RateLimitPostgres:
		if db == nil {
			return nil, fmt.Errorf("rate limit backend %q requires a database", backend)
		}
		return NewPostgresStore(db, time.Now), nil
	case config.RateLimitRedis:
		if rdb == nil {
			return nil, fmt.Errorf("rate limit backend %q requires a redis client", backend)
		}
		return NewRedisStore(rdb), nil
	default:
		return nil, fmt.Errorf("unknown rate limit backend %q", backend)
	}
}
