package lock

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skipf("TEST_REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("parse redis url: %v", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisLockerSecondClaimFails(t *testing.T) {
	client := newTestRedis(t)
	l := NewRedisLocker(client, 2*time.Second, 3)
	key := "test:" + uuid.NewString()

	release, err := l.Acquire(context.Background(), key)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	if _, err := l.Acquire(context.Background(), key); !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("expected ErrNotAcquired, got %v", err)
	}

	release()
	again, err := l.Acquire(context.Background(), key)
	if err != nil {
		t.Fatalf("expected key free after release: %v", err)
	}
	again()
}

func TestRedisLockerDoesNotReleaseForeignToken(t *testing.T) {
	client := newTestRedis(t)
	l := NewRedisLocker(client, 50*time.Millisecond, 1)
	key := "test:" + uuid.NewString()

	release, err := l.Acquire(context.Background(), key)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	// Lease expired; another holder takes it.
	if err := client.Set(context.Background(), l.prefix+key, "someone-else", time.Minute).Err(); err != nil {
		t.Fatalf("set: %v", err)
	}
	release()

	got, err := client.Get(context.Background(), l.prefix+key).Result()
	if err != nil || got != "someone-else" {
		t.Fatalf("foreign lock was released: %q %v", got, err)
	}
	client.Del(context.Background(), l.prefix+key)
}
