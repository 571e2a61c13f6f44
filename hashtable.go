package hashtable

import (
	"context"
	"time"

	be "github.com/Youniwemi/HashTable/backend"
)

// SetOptions tunes Table.Set.
type SetOptions struct {
	// TTL applies an expiry to the key after the write. Zero means no expiry.
	TTL time.Duration

	// Replace makes the write succeed only if the key already exists. A
	// replace against an absent key fails (false, nil) without writing.
	Replace bool
}

// Table is the negative-cache-aware dispatcher over a Backend. All methods
// are safe for concurrent use by multiple goroutines; cross-process
// coordination funnels entirely through the backend's atomic primitives.
type Table interface {
	// Exists reports whether key holds a value. A key confirmed absent by a
	// prior call is answered locally without a backend round-trip.
	Exists(ctx context.Context, key string) (bool, error)

	// ExistsMulti is the batched form of Exists, keyed by logical key.
	ExistsMulti(ctx context.Context, keys []string) (map[string]bool, error)

	// Get returns the value for key. ok=false means the key is absent; an
	// empty string with ok=true is a legitimate stored value.
	Get(ctx context.Context, key string) (v string, ok bool, err error)

	// GetMulti is the batched form of Get. Absent keys are omitted from the
	// result map.
	GetMulti(ctx context.Context, keys []string) (map[string]string, error)

	// Set writes value under key. Returns ok=false when opts.Replace is set
	// and the key does not exist. On success the key is removed from the
	// negative cache before Set returns.
	Set(ctx context.Context, key, value string, opts SetOptions) (bool, error)

	// Delete removes the given keys. Returns ok=true only when the backend
	// confirms deleting exactly as many keys as were sent to it; keys
	// already confirmed absent are skipped and count as deleted.
	Delete(ctx context.Context, keys ...string) (bool, error)

	// Clear removes every backend key under the configured prefix and resets
	// the negative cache.
	Clear(ctx context.Context) error

	// Key derives the physical key for a logical key. Pure; no backend
	// contact.
	Key(key string, kind KeyKind) string

	// Lock blocks until the named lock is acquired or ctx is canceled.
	Lock(ctx context.Context, key string) error

	// Acquire attempts to take the named lock, giving up after wait. A zero
	// wait blocks like Lock. Returns false when the wait window elapsed
	// without acquiring.
	Acquire(ctx context.Context, key string, wait time.Duration) (bool, error)

	// Unlock releases the named lock. The delete is unconditional: ownership
	// is not verified, so releasing a lock that already expired and was
	// re-acquired elsewhere will release the other holder's lock.
	Unlock(ctx context.Context, key string) error

	// Prefix returns the current key namespace prefix.
	Prefix() string

	// SetPrefix changes the namespace prefix. Takes effect on subsequent key
	// derivations only.
	SetPrefix(prefix string)

	// Persistent reports whether the backend keeps data beyond the process
	// lifetime.
	Persistent() bool

	// Locking reports whether the backend supports the lock operations.
	Locking() bool

	// Params returns the serializable configuration of this table. The live
	// backend handle is never part of it.
	Params() Params

	// Close releases every locally-held lock, then closes the backend.
	Close(ctx context.Context) error
}

// Options configure a Table. Only Backend is required; others have sensible
// defaults.
type Options struct {
	// Required. The store the table dispatches to.
	Backend be.Backend

	Prefix       string        // key namespace; "" => "ht_"
	Logger       Logger        // nil => NopLogger
	LockTTL      time.Duration // crash-safety expiry on lock keys; 0 => 30s
	LockRetry    time.Duration // sleep between acquire attempts; 0 => 100ms
	CloseBackend bool          // set true only if the table exclusively owns the backend
}

// New builds a Table from opts. Fails immediately when Backend is nil.
func New(opts Options) (Table, error) {
	return newTable(opts)
}
