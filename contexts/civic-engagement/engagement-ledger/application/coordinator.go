package application

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	domainerrors "agora/contexts/civic-engagement/engagement-ledger/domain/errors"
)

// EntityLocks serializes mutations per entity. Every ledger write, aggregate
// recompute, and threshold check for one entity runs under its lock, so the
// combined sequence is indivisible relative to other mutations on that
// entity. Distinct entities contend on nothing but the registry map.
type EntityLocks struct {
	mu    sync.Mutex
	locks map[string]*entityLock
}

type entityLock struct {
	sem  *semaphore.Weighted
	refs int
}

func NewEntityLocks() *EntityLocks {
	return &EntityLocks{locks: make(map[string]*entityLock)}
}

// Acquire blocks until the entity's mutation path is exclusively held or ctx
// expires. Callers bound the wait with a deadline; expiry surfaces as
// ErrConflict so contention storms fail the same way exhausted optimistic
// retries do. The returned release function must be called exactly once.
func (l *EntityLocks) Acquire(ctx context.Context, entityID string) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[entityID]
	if !ok {
		lock = &entityLock{sem: semaphore.NewWeighted(1)}
		l.locks[entityID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	if err := lock.sem.Acquire(ctx, 1); err != nil {
		l.release(entityID, lock, false)
		return nil, domainerrors.ErrConflict
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.release(entityID, lock, true)
		})
	}, nil
}

func (l *EntityLocks) release(entityID string, lock *entityLock, held bool) {
	if held {
		lock.sem.Release(1)
	}
	l.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, entityID)
	}
	l.mu.Unlock()
}
