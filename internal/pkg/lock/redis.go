package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// releaseScript deletes the key only if it still holds our token, so an
// expired lock re-acquired by another replica is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a lease lock shared by every API replica (SET NX PX).
type RedisLocker struct {
	client   *redis.Client
	prefix   string
	ttl      time.Duration
	attempts int
	backoff  time.Duration
}

// NewRedisLocker creates a distributed locker. attempts < 1 is treated as 1.
func NewRedisLocker(client *redis.Client, ttl time.Duration, attempts int) *RedisLocker {
	if attempts < 1 {
		attempts = 1
	}
	return &RedisLocker{
		client:   client,
		prefix:   "groomly:lock:",
		ttl:      ttl,
		attempts: attempts,
		backoff:  50 * time.Millisecond,
	}
}

// Acquire tries SET NX up to attempts times with linear backoff.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	fullKey := l.prefix + key
	token := uuid.NewString()

	for attempt := 1; attempt <= l.attempts; attempt++ {
		ok, err := l.client.SetNX(ctx, fullKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock %s: %w", key, err)
		}
		if ok {
			return l.releaser(fullKey, token), nil
		}
		if attempt == l.attempts {
			break
		}

		select {
		case <-time.After(time.Duration(attempt) * l.backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, ErrNotAcquired
}

func (l *RedisLocker) releaser(fullKey, token string) func() {
	released := false
	return func() {
		if released {
			return
		}
		released = true

		// The caller's ctx may already be cancelled; release on our own budget.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{fullKey}, token).Err(); err != nil {
			log.Warn().Err(err).Str("key", fullKey).Msg("Failed to release redis lock, it will expire")
		}
	}
}
