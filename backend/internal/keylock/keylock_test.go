package keylock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker_SerializesSameKey(t *testing.T) {
	l := New()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("quote-1")
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Zero(t, l.Len(), "entries should be released")
}

func TestLocker_DifferentKeysDoNotBlock(t *testing.T) {
	l := New()
	unlockA := l.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := l.Lock("b")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b blocked behind a")
	}
}

func TestLocker_UnlockIsIdempotent(t *testing.T) {
	l := New()
	unlock := l.Lock("a")
	unlock()
	unlock()
	assert.Zero(t, l.Len())
}

func TestLocker_LockContextGivesUpOnDeadline(t *testing.T) {
	l := New()
	unlock := l.Lock("a")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	waiter, err := l.LockContext(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, waiter)
	assert.Equal(t, 1, l.Len(), "holder keeps its entry")

	unlock()
	assert.Zero(t, l.Len())

	again, err := l.LockContext(context.Background(), "a")
	require.NoError(t, err)
	again()
}

func TestLocker_LockContextWakesWhenReleased(t *testing.T) {
	l := New()
	unlock := l.Lock("a")

	acquired := make(chan error, 1)
	go func() {
		u, err := l.LockContext(context.Background(), "a")
		if err == nil {
			u()
		}
		acquired <- err
	}()

	time.Sleep(10 * time.Millisecond)
	unlock()

	select {
	case err := <-acquired:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired the lock")
	}
	assert.Zero(t, l.Len())
}
