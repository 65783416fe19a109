// Package lock provides advisory locks that serialize conflicting calendar
// writes: a single-process keyed mutex and a Redis lock for deployments with
// more than one instance.
package lock

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// ErrNotAcquired is returned when a lock could not be taken before the
// context ended.
var ErrNotAcquired = errors.New("lock not acquired")

// Unlock releases a held lock. It is safe to call more than once.
type Unlock func()

// Locker takes an exclusive lock on key, blocking until it is held or ctx ends.
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

// PartyKey is the lock key guarding one party's calendar.
func PartyKey(id uuid.UUID) string {
	return "interview:party:" + id.String()
}

// InterviewKey is the lock key guarding one interview record.
func InterviewKey(id uuid.UUID) string {
	return "interview:record:" + id.String()
}

// LockAll takes every key in sorted order, deduplicated, so two callers
// locking the same set can never deadlock. On failure the keys already held
// are released.
func LockAll(ctx context.Context, l Locker, keys ...string) (Unlock, error) {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	held := make([]Unlock, 0, len(sorted))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i]()
		}
	}

	for i, k := range sorted {
		if i > 0 && sorted[i-1] == k {
			continue
		}
		u, err := l.Lock(ctx, k)
		if err != nil {
			release()
			return nil, err
		}
		held = append(held, u)
	}
	return once(release), nil
}

func once(fn func()) Unlock {
	var o sync.Once
	return func() { o.Do(fn) }
}
