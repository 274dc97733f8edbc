// Package lock serializes claims on a shared key, such as a (date, sub-slot)
// pair, across goroutines or across API replicas.
package lock

import (
	"context"
	"errors"
)

// ErrNotAcquired is returned when the lock is still held by someone else after
// the configured number of attempts.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker acquires a named lock. The returned release func is safe to call once.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}
