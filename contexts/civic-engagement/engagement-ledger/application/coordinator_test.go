package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	domainerrors "agora/contexts/civic-engagement/engagement-ledger/domain/errors"
)

func TestEntityLocksSerializeSameEntity(t *testing.T) {
	locks := NewEntityLocks()

	release, err := locks.Acquire(context.Background(), "entity-1")
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = locks.Acquire(ctx, "entity-1")
	if !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("contended acquire should time out with conflict, got %v", err)
	}

	release()

	release2, err := locks.Acquire(context.Background(), "entity-1")
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	release2()
}

func TestEntityLocksIndependentEntities(t *testing.T) {
	locks := NewEntityLocks()

	releaseA, err := locks.Acquire(context.Background(), "entity-a")
	if err != nil {
		t.Fatalf("acquire a: %v", err)
	}
	defer releaseA()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	releaseB, err := locks.Acquire(ctx, "entity-b")
	if err != nil {
		t.Fatalf("distinct entities must not contend: %v", err)
	}
	releaseB()
}

func TestEntityLocksReleaseIsIdempotent(t *testing.T) {
	locks := NewEntityLocks()

	release, err := locks.Acquire(context.Background(), "entity-1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	release()
	release() // second call must be a no-op

	next, err := locks.Acquire(context.Background(), "entity-1")
	if err != nil {
		t.Fatalf("acquire after double release: %v", err)
	}
	next()
}

func TestEntityLocksUnderContention(t *testing.T) {
	locks := NewEntityLocks()

	const workers = 20
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locks.Acquire(context.Background(), "entity-1")
			if err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			counter++
			release()
		}()
	}
	wg.Wait()

	if counter != workers {
		t.Fatalf("expected %d serialized increments, got %d", workers, counter)
	}
}
