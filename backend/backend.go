// Package backend defines the store abstraction consumed by hashtable.
//
// Implementations are thin pass-throughs to a remote (or in-process) store's
// primitives: no retry loops, no key rewriting, no caching. Absence of a key
// is never an error; drivers report it through the shapes below (a key
// missing from the BatchGet map, false in the BatchExists map) and reserve
// errors for transport or server faults.
package backend

import (
	"context"
	"time"
)

// SetOptions tunes ConditionalSet.
type SetOptions struct {
	// TTL applies an expiry to the key after the write. Zero means no expiry.
	TTL time.Duration

	// RequireExisting makes the write succeed only if the key already exists
	// (Redis: SET ... XX). With it unset the write is unconditional.
	RequireExisting bool
}

// Backend is the minimal contract a remote key-value store must satisfy.
// Must be safe for concurrent use.
type Backend interface {
	// BatchGet returns the values for the given keys. Absent keys are omitted
	// from the result map; a stored empty string is a legitimate value and
	// appears in the map as "".
	BatchGet(ctx context.Context, keys []string) (map[string]string, error)

	// BatchExists reports per-key existence.
	BatchExists(ctx context.Context, keys []string) (map[string]bool, error)

	// BatchDelete removes the given keys and returns how many actually
	// existed and were removed.
	BatchDelete(ctx context.Context, keys []string) (int64, error)

	// ConditionalSet writes value under key per opts. Returns ok=false when
	// opts.RequireExisting is set and the key does not exist.
	ConditionalSet(ctx context.Context, key, value string, opts SetOptions) (bool, error)

	// ScanByPattern returns every key matching the given glob pattern.
	ScanByPattern(ctx context.Context, pattern string) ([]string, error)

	// Persistent reports whether data survives the owning process.
	Persistent() bool

	// Close releases resources.
	Close(ctx context.Context) error
}

// Locker is the optional extension a driver implements to support
// distributed locking. A Table built on a Backend without Locker reports
// Locking() == false and rejects lock operations.
type Locker interface {
	// SetIfAbsent atomically writes value under key only if the key does not
	// exist. Returns true when this call performed the write.
	SetIfAbsent(ctx context.Context, key, value string) (bool, error)

	// Expire applies an expiry to an existing key. Returns false when the
	// key does not exist.
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}
