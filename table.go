package hashtable

import (
	"context"
	"sync"
	"time"

	be "github.com/Youniwemi/HashTable/backend"
)

const (
	defaultPrefix    = "ht_"
	defaultLockTTL   = 30 * time.Second
	defaultLockRetry = 100 * time.Millisecond
)

type table struct {
	backend      be.Backend
	locker       be.Locker // nil when the backend cannot lock
	log          Logger
	lockTTL      time.Duration
	lockRetry    time.Duration
	closeBackend bool

	mu     sync.RWMutex
	prefix string
	// absent holds logical keys the backend confirmed missing. An entry is
	// added on a definitive miss (get/exists) and removed on a successful
	// set. It never expires on its own; losing it only costs round-trips.
	absent map[string]struct{}
	// held tracks lock keys acquired by this instance, to drive release on
	// Close.
	held map[string]struct{}
}

func newTable(opts Options) (*table, error) {
	if opts.Backend == nil {
		return nil, ErrBackendRequired
	}

	t := &table{
		backend:      opts.Backend,
		closeBackend: opts.CloseBackend,
		absent:       make(map[string]struct{}),
		held:         make(map[string]struct{}),
	}

	// defaults
	t.prefix = coalesce(opts.Prefix, defaultPrefix)
	t.log = coalesce[Logger](opts.Logger, NopLogger{})
	t.lockTTL = coalesce(opts.LockTTL, defaultLockTTL)
	t.lockRetry = coalesce(opts.LockRetry, defaultLockRetry)

	t.locker, _ = opts.Backend.(be.Locker)
	return t, nil
}

func (t *table) Prefix() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.prefix
}

func (t *table) SetPrefix(prefix string) {
	t.mu.Lock()
	t.prefix = prefix
	t.mu.Unlock()
}

func (t *table) Persistent() bool { return t.backend.Persistent() }
func (t *table) Locking() bool    { return t.locker != nil }

func (t *table) Key(key string, kind KeyKind) string {
	return physicalKey(t.Prefix(), key, kind)
}

func (t *table) Exists(ctx context.Context, key string) (bool, error) {
	m, err := t.ExistsMulti(ctx, []string{key})
	if err != nil {
		return false, err
	}
	return m[key], nil
}

func (t *table) ExistsMulti(ctx context.Context, keys []string) (map[string]bool, error) {
	out := make(map[string]bool, len(keys))
	remote := t.splitCached(keys, func(k string) { out[k] = false })
	if len(remote) == 0 {
		return out, nil
	}

	found, err := t.backend.BatchExists(ctx, t.physicalKeys(remote, KeyData))
	if err != nil {
		return nil, backendErr("exists", err)
	}
	var missed []string
	for _, k := range remote {
		ok := found[t.Key(k, KeyData)]
		out[k] = ok
		if !ok {
			missed = append(missed, k)
		}
	}
	t.markAbsent(missed)
	t.log.Debug("exists", Fields{"keys": keys, "missing": missed})
	return out, nil
}

func (t *table) Get(ctx context.Context, key string) (string, bool, error) {
	m, err := t.GetMulti(ctx, []string{key})
	if err != nil {
		return "", false, err
	}
	v, ok := m[key]
	return v, ok, nil
}

func (t *table) GetMulti(ctx context.Context, keys []string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	remote := t.splitCached(keys, nil)
	if len(remote) == 0 {
		return out, nil
	}

	vals, err := t.backend.BatchGet(ctx, t.physicalKeys(remote, KeyData))
	if err != nil {
		return nil, backendErr("get", err)
	}
	var missed []string
	for _, k := range remote {
		// an empty string is a real value; only a missing map entry is a miss
		if v, ok := vals[t.Key(k, KeyData)]; ok {
			out[k] = v
		} else {
			missed = append(missed, k)
		}
	}
	t.markAbsent(missed)
	t.log.Debug("get", Fields{"keys": keys, "missing": missed})
	return out, nil
}

func (t *table) Set(ctx context.Context, key, value string, opts SetOptions) (bool, error) {
	if opts.Replace && t.confirmedAbsent(key) {
		// replace against a key we already know is missing: fail without a
		// round-trip
		return false, nil
	}

	ok, err := t.backend.ConditionalSet(ctx, t.Key(key, KeyData), value, be.SetOptions{
		TTL:             opts.TTL,
		RequireExisting: opts.Replace,
	})
	if err != nil {
		return false, backendErr("set", err)
	}
	if !ok {
		return false, nil
	}

	t.mu.Lock()
	delete(t.absent, key)
	t.mu.Unlock()
	t.log.Debug("set", Fields{"key": key, "replace": opts.Replace, "ttl": opts.TTL})
	return true, nil
}

func (t *table) Delete(ctx context.Context, keys ...string) (bool, error) {
	remote := t.splitCached(keys, nil)
	if len(remote) == 0 {
		return true, nil
	}

	n, err := t.backend.BatchDelete(ctx, t.physicalKeys(remote, KeyData))
	if err != nil {
		return false, backendErr("delete", err)
	}
	if n != int64(len(remote)) {
		// the backend removed fewer keys than we sent; don't guess which
		t.log.Debug("delete count mismatch", Fields{"keys": remote, "deleted": n})
		return false, nil
	}
	t.markAbsent(keys)
	t.log.Debug("delete", Fields{"keys": keys})
	return true, nil
}

func (t *table) Clear(ctx context.Context) error {
	pattern := escapeGlob(t.Prefix()) + "*"
	found, err := t.backend.ScanByPattern(ctx, pattern)
	if err != nil {
		return backendErr("clear", err)
	}
	if len(found) > 0 {
		if _, err := t.backend.BatchDelete(ctx, found); err != nil {
			return backendErr("clear", err)
		}
	}

	// the negative cache only ever turns more accurate after a clear, but a
	// fresh table should not carry pre-clear observations
	t.mu.Lock()
	t.absent = make(map[string]struct{})
	t.mu.Unlock()
	t.log.Debug("clear", Fields{"pattern": pattern, "deleted": len(found)})
	return nil
}

func (t *table) Close(ctx context.Context) error {
	t.releaseHeld(ctx)
	if t.closeBackend {
		return t.backend.Close(ctx)
	}
	return nil
}

// splitCached partitions keys into locally-confirmed-absent (onAbsent called
// per key, if non-nil) and the remainder needing a backend round-trip.
// Duplicates collapse to a single remote key.
func (t *table) splitCached(keys []string, onAbsent func(k string)) []string {
	remote := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	t.mu.RLock()
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if _, ok := t.absent[k]; ok {
			if onAbsent != nil {
				onAbsent(k)
			}
			continue
		}
		remote = append(remote, k)
	}
	t.mu.RUnlock()
	return remote
}

func (t *table) physicalKeys(keys []string, kind KeyKind) []string {
	prefix := t.Prefix()
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = physicalKey(prefix, k, kind)
	}
	return out
}

func (t *table) markAbsent(keys []string) {
	if len(keys) == 0 {
		return
	}
	t.mu.Lock()
	for _, k := range keys {
		t.absent[k] = struct{}{}
	}
	t.mu.Unlock()
}

func (t *table) confirmedAbsent(key string) bool {
	t.mu.RLock()
	_, ok := t.absent[key]
	t.mu.RUnlock()
	return ok
}
