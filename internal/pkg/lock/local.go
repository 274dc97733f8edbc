package lock

import (
	"context"
	"sync"
	"time"
)

// LocalLocker is an in-process keyed mutex. Waiters honour ctx and give up
// after wait.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slotLock
	wait  time.Duration
}

type slotLock struct {
	ch   chan struct{}
	refs int
}

// NewLocalLocker creates a keyed mutex. A zero wait fails fast when the key is held.
func NewLocalLocker(wait time.Duration) *LocalLocker {
	return &LocalLocker{
		slots: make(map[string]*slotLock),
		wait:  wait,
	}
}

func (l *LocalLocker) ref(key string) *slotLock {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.slots[key]
	if !ok {
		s = &slotLock{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *LocalLocker) unref(key string, s *slotLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

// Acquire blocks until the key is free, ctx is done or the wait elapses.
func (l *LocalLocker) Acquire(ctx context.Context, key string) (func(), error) {
	s := l.ref(key)

	select {
	case s.ch <- struct{}{}:
		return l.releaser(key, s), nil
	default:
	}

	if l.wait <= 0 {
		l.unref(key, s)
		return nil, ErrNotAcquired
	}

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case s.ch <- struct{}{}:
		return l.releaser(key, s), nil
	case <-timer.C:
		l.unref(key, s)
		return nil, ErrNotAcquired
	case <-ctx.Done():
		l.unref(key, s)
		return nil, ctx.Err()
	}
}

func (l *LocalLocker) releaser(key string, s *slotLock) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.unref(key, s)
		})
	}
}
