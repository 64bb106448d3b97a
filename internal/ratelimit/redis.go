package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ratelimit:"

// RedisStore counts attempts with INCR on a key that expires with the window.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Hit(ctx context.Context, identifier string, maxAttempts int, window time.Duration) (*Window, error) {
	key := redisKeyPrefix + identifier

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	if count == 1 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
	}

	ttl, err := s.client.PTTL(ctx, key).Result()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	// A key left without expiry by a failed EXPIRE would never reset.
	if ttl < 0 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		ttl = window
	}

	end := time.Now().Add(ttl)
	w := &Window{
		Identifier:   identifier,
		AttemptCount: int(count),
		WindowStart:  end.Add(-window),
	}
	if w.AttemptCount > maxAttempts {
		w.BlockedUntil = &end
	}
	return w, nil
}
