package hashtable

import (
	"context"
	"time"
)

// lockSentinel is the value written under a lock key. The holder is not
// encoded in it: release is by key alone, so a process can delete a lock it
// no longer owns if the TTL already expired and someone else re-acquired it.
// That trade-off (availability over strict ownership) is deliberate and
// matches the unconditional Unlock contract.
const lockSentinel = "1"

func (t *table) Lock(ctx context.Context, key string) error {
	_, err := t.acquire(ctx, key, 0)
	return err
}

func (t *table) Acquire(ctx context.Context, key string, wait time.Duration) (bool, error) {
	return t.acquire(ctx, key, wait)
}

// acquire loops on the backend's atomic set-if-absent until it wins, ctx is
// canceled, or the wait window (when non-zero) elapses. Only "already held"
// triggers a retry sleep; a connectivity fault propagates immediately.
func (t *table) acquire(ctx context.Context, key string, wait time.Duration) (bool, error) {
	if t.locker == nil {
		return false, ErrNotLockable
	}
	lk := t.Key(key, KeyLock)

	var deadline time.Time
	if wait > 0 {
		deadline = time.Now().Add(wait)
	}

	for {
		won, err := t.locker.SetIfAbsent(ctx, lk, lockSentinel)
		if err != nil {
			return false, backendErr("lock", err)
		}
		if won {
			break
		}
		if !deadline.IsZero() && !time.Now().Add(t.lockRetry).Before(deadline) {
			t.log.Debug("lock wait expired", Fields{"key": key, "wait": wait})
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(t.lockRetry):
		}
	}

	// crash-safety net: if this process dies without unlocking, the lock
	// self-clears after the TTL
	if _, err := t.locker.Expire(ctx, lk, t.lockTTL); err != nil {
		return false, backendErr("lock", err)
	}

	t.mu.Lock()
	t.held[key] = struct{}{}
	t.mu.Unlock()
	t.log.Debug("lock acquired", Fields{"key": key})
	return true, nil
}

func (t *table) Unlock(ctx context.Context, key string) error {
	if t.locker == nil {
		return ErrNotLockable
	}
	// unconditional: no ownership check, see lockSentinel
	if _, err := t.backend.BatchDelete(ctx, []string{t.Key(key, KeyLock)}); err != nil {
		return backendErr("unlock", err)
	}
	t.mu.Lock()
	delete(t.held, key)
	t.mu.Unlock()
	t.log.Debug("lock released", Fields{"key": key})
	return nil
}

// releaseHeld frees every lock this instance still holds. Called from Close
// so locks never outlive the table beyond the TTL window.
func (t *table) releaseHeld(ctx context.Context) {
	t.mu.Lock()
	keys := make([]string, 0, len(t.held))
	for k := range t.held {
		keys = append(keys, k)
	}
	t.held = make(map[string]struct{})
	t.mu.Unlock()

	for _, k := range keys {
		if _, err := t.backend.BatchDelete(ctx, []string{t.Key(k, KeyLock)}); err != nil {
			t.log.Warn("lock release on close failed", Fields{"key": k, "err": err})
		}
	}
}
