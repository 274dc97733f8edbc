package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLocalLockerExcludesConcurrentHolders(t *testing.T) {
	l := NewLocalLocker(time.Second)
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background(), "2024-05-01:slot-a")
			if err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Fatalf("expected at most one holder, saw %d", maxInside)
	}
	if len(l.slots) != 0 {
		t.Fatalf("expected lock table to be empty, got %d entries", len(l.slots))
	}
}

func TestLocalLockerFailsFastWithoutWait(t *testing.T) {
	l := NewLocalLocker(0)
	release, err := l.Acquire(context.Background(), "k")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer release()

	if _, err := l.Acquire(context.Background(), "k"); !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("expected ErrNotAcquired, got %v", err)
	}
	if _, err := l.Acquire(context.Background(), "other"); err != nil {
		t.Fatalf("different key should be free: %v", err)
	}
}

func TestLocalLockerHonoursContext(t *testing.T) {
	l := NewLocalLocker(time.Minute)
	release, _ := l.Acquire(context.Background(), "k")
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := l.Acquire(ctx, "k"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	l := NewLocalLocker(0)
	release, _ := l.Acquire(context.Background(), "k")
	release()
	release()

	again, err := l.Acquire(context.Background(), "k")
	if err != nil {
		t.Fatalf("expected key to be free: %v", err)
	}
	again()
}
