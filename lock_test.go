package hashtable

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fast lock settings so contention tests stay quick
func fastLocks(o *Options) {
	o.LockRetry = 5 * time.Millisecond
	o.LockTTL = time.Minute
}

func TestLockMutualExclusion(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend()
	t1 := newTestTable(t, fb, fastLocks)
	t2 := newTestTable(t, fb, fastLocks)

	if err := t1.Lock(ctx, "job"); err != nil {
		t.Fatalf("Lock: %v", err)
	}

	// second holder cannot get it within its wait window
	ok, err := t2.Acquire(ctx, "job", 30*time.Millisecond)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if ok {
		t.Fatalf("lock acquired twice")
	}

	if err := t1.Unlock(ctx, "job"); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if ok, err := t2.Acquire(ctx, "job", 200*time.Millisecond); err != nil || !ok {
		t.Fatalf("Acquire after release: ok=%v err=%v", ok, err)
	}
}

func TestLockBlocksUntilReleased(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend()
	t1 := newTestTable(t, fb, fastLocks)
	t2 := newTestTable(t, fb, fastLocks)

	if err := t1.Lock(ctx, "job"); err != nil {
		t.Fatalf("Lock: %v", err)
	}

	acquired := make(chan error, 1)
	go func() { acquired <- t2.Lock(ctx, "job") }()

	select {
	case err := <-acquired:
		t.Fatalf("second Lock returned while held: %v", err)
	case <-time.After(30 * time.Millisecond):
	}

	if err := t1.Unlock(ctx, "job"); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	select {
	case err := <-acquired:
		if err != nil {
			t.Fatalf("second Lock: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("second Lock did not proceed after release")
	}
}

// TestLockExpiryFreesCrashHolder: a holder that never unlocks loses the lock
// once the TTL elapses.
func TestLockExpiryFreesCrashHolder(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend()
	t1 := newTestTable(t, fb, func(o *Options) {
		o.LockRetry = 5 * time.Millisecond
		o.LockTTL = 30 * time.Millisecond
	})
	t2 := newTestTable(t, fb, fastLocks)

	if err := t1.Lock(ctx, "job"); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	// t1 "crashes": no unlock. t2 outwaits the TTL.
	ok, err := t2.Acquire(ctx, "job", time.Second)
	if err != nil || !ok {
		t.Fatalf("Acquire after expiry: ok=%v err=%v", ok, err)
	}
}

func TestLockContextCancellation(t *testing.T) {
	fb := newFakeBackend()
	t1 := newTestTable(t, fb, fastLocks)
	t2 := newTestTable(t, fb, fastLocks)

	if err := t1.Lock(context.Background(), "job"); err != nil {
		t.Fatalf("Lock: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- t2.Lock(ctx, "job") }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Lock did not honor cancellation")
	}
}

// A connectivity fault during acquire must propagate, never be mistaken for
// "held by someone else" and retried.
func TestLockConnectivityFaultPropagates(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend()
	fb.setNXErr = errors.New("connection reset")
	tb := newTestTable(t, fb, fastLocks)

	err := tb.Lock(ctx, "job")
	var bErr *BackendError
	if !errors.As(err, &bErr) {
		t.Fatalf("expected BackendError, got %v", err)
	}
	if got := fb.count("setnx"); got != 1 {
		t.Fatalf("connectivity fault must not retry, attempts=%d", got)
	}
}

// Unlock is deliberately unconditional: it releases the key even when the
// lock is held by someone else.
func TestUnlockDoesNotCheckOwnership(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend()
	t1 := newTestTable(t, fb, fastLocks)
	t2 := newTestTable(t, fb, fastLocks)

	if err := t1.Lock(ctx, "job"); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	// t2 never acquired, yet its Unlock frees t1's lock
	if err := t2.Unlock(ctx, "job"); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if ok, err := t2.Acquire(ctx, "job", 50*time.Millisecond); err != nil || !ok {
		t.Fatalf("lock should be free after foreign unlock: ok=%v err=%v", ok, err)
	}
}

func TestCloseReleasesHeldLocks(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend()
	t1 := newTestTable(t, fb, fastLocks)
	t2 := newTestTable(t, fb, fastLocks)

	for _, k := range []string{"job1", "job2"} {
		if err := t1.Lock(ctx, k); err != nil {
			t.Fatalf("Lock %s: %v", k, err)
		}
	}
	if err := t1.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	for _, k := range []string{"job1", "job2"} {
		if ok, err := t2.Acquire(ctx, k, 50*time.Millisecond); err != nil || !ok {
			t.Fatalf("lock %s not released by Close: ok=%v err=%v", k, ok, err)
		}
	}
}

func TestLockKeySeparateFromData(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend()
	tb := newTestTable(t, fb, fastLocks)

	// a lock on "user:1" must not shadow or disturb the data entry
	if ok, err := tb.Set(ctx, "user:1", "Alice", SetOptions{}); err != nil || !ok {
		t.Fatalf("Set: ok=%v err=%v", ok, err)
	}
	if err := tb.Lock(ctx, "user:1"); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if v, ok, err := tb.Get(ctx, "user:1"); err != nil || !ok || v != "Alice" {
		t.Fatalf("data entry disturbed by lock: v=%q ok=%v err=%v", v, ok, err)
	}
	if err := tb.Unlock(ctx, "user:1"); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if v, ok, _ := tb.Get(ctx, "user:1"); !ok || v != "Alice" {
		t.Fatalf("data entry removed by unlock: v=%q ok=%v", v, ok)
	}
}
