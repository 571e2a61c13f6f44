package hashtable

import (
	"errors"
	"fmt"
)

// ErrBackendRequired is returned by New when Options.Backend is nil.
var ErrBackendRequired = errors.New("hashtable: backend is required")

// ErrNotLockable is returned by lock operations when the configured backend
// does not implement backend.Locker.
var ErrNotLockable = errors.New("hashtable: backend does not support locking")

// BackendError wraps a transport or server fault from the backend. Expected
// conditions (absence, replace-condition failure, delete-count mismatch) are
// encoded in boolean results and never produce a BackendError.
type BackendError struct {
	Op  string // the table operation that failed: "get", "set", "delete", ...
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("hashtable: backend %s failed: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

func backendErr(op string, err error) error {
	return &BackendError{Op: op, Err: err}
}
