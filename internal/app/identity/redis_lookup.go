package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// sessionKeyPrefix namespaces app session ids in the shared Redis store.
	sessionKeyPrefix = "session:"

	// lookupTimeout bounds a single session lookup.
	lookupTimeout = 2 * time.Second
)

// RedisLookup resolves session ids against the Redis store shared with the
// surrounding application's HTTP layer.
type RedisLookup struct {
	client *redis.Client
}

// NewRedisLookup wraps an existing Redis client.
func NewRedisLookup(client *redis.Client) *RedisLookup {
	return &RedisLookup{client: client}
}

// UserForSession returns the user id owning the given application session.
// A missing key maps to ErrSessionNotFound.
func (l *RedisLookup) UserForSession(ctx context.Context, sessionID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	userID, err := l.client.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("session store lookup failed: %w", err)
	}

	if userID == "" {
		return "", ErrSessionNotFound
	}

	return userID, nil
}
