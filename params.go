package hashtable

import (
	"time"

	"github.com/vmihailenco/msgpack/v5"

	be "github.com/Youniwemi/HashTable/backend"
)

// Params is the serializable slice of a table's configuration: everything
// needed to rebuild an equivalent Table on the other side of a process
// boundary, minus the live backend handle, which must be re-established
// there.
type Params struct {
	Prefix    string        `msgpack:"prefix"`
	LockTTL   time.Duration `msgpack:"lock_ttl"`
	LockRetry time.Duration `msgpack:"lock_retry"`
}

func (t *table) Params() Params {
	return Params{
		Prefix:    t.Prefix(),
		LockTTL:   t.lockTTL,
		LockRetry: t.lockRetry,
	}
}

// Options rebuilds construction options from p around a freshly established
// backend.
func (p Params) Options(b be.Backend) Options {
	return Options{
		Backend:   b,
		Prefix:    p.Prefix,
		LockTTL:   p.LockTTL,
		LockRetry: p.LockRetry,
	}
}

// Encode serializes p for transport.
func (p Params) Encode() ([]byte, error) {
	return msgpack.Marshal(p)
}

// DecodeParams is the inverse of Params.Encode.
func DecodeParams(b []byte) (Params, error) {
	var p Params
	if err := msgpack.Unmarshal(b, &p); err != nil {
		return Params{}, err
	}
	return p, nil
}
