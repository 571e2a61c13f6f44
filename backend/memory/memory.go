// Package memory implements the hashtable backend contract with an
// in-process map. Data does not survive the process; the driver exists for
// tests and single-process deployments where a remote store is overkill.
// It implements the full Locker extension, so a Table built on it reports
// Locking() == true.
package memory

import (
	"context"
	"sync"
	"time"

	be "github.com/Youniwemi/HashTable/backend"
)

type entry struct {
	v   string
	exp time.Time // zero => no TTL
}

type Memory struct {
	mu sync.Mutex
	m  map[string]entry
}

var (
	_ be.Backend = (*Memory)(nil)
	_ be.Locker  = (*Memory)(nil)
)

func New() *Memory {
	return &Memory{m: make(map[string]entry)}
}

// live returns the entry for key, lazily dropping it when expired.
// Caller must hold mu.
func (b *Memory) live(key string) (entry, bool) {
	e, ok := b.m[key]
	if !ok {
		return entry{}, false
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		delete(b.m, key)
		return entry{}, false
	}
	return e, true
}

func (b *Memory) BatchGet(_ context.Context, keys []string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, k := range keys {
		if e, ok := b.live(k); ok {
			out[k] = e.v
		}
	}
	return out, nil
}

func (b *Memory) BatchExists(_ context.Context, keys []string) (map[string]bool, error) {
	out := make(map[string]bool, len(keys))
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, k := range keys {
		_, ok := b.live(k)
		out[k] = ok
	}
	return out, nil
}

func (b *Memory) BatchDelete(_ context.Context, keys []string) (int64, error) {
	var n int64
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, k := range keys {
		if _, ok := b.live(k); ok {
			delete(b.m, k)
			n++
		}
	}
	return n, nil
}

func (b *Memory) ConditionalSet(_ context.Context, key, value string, opts be.SetOptions) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if opts.RequireExisting {
		if _, ok := b.live(key); !ok {
			return false, nil
		}
	}
	var exp time.Time
	if opts.TTL > 0 {
		exp = time.Now().Add(opts.TTL)
	}
	b.m[key] = entry{v: value, exp: exp}
	return true, nil
}

func (b *Memory) ScanByPattern(_ context.Context, pattern string) ([]string, error) {
	var out []string
	b.mu.Lock()
	defer b.mu.Unlock()
	for k := range b.m {
		if _, ok := b.live(k); !ok {
			continue
		}
		if globMatch(pattern, k) {
			out = append(out, k)
		}
	}
	return out, nil
}

func (b *Memory) SetIfAbsent(_ context.Context, key, value string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.live(key); ok {
		return false, nil
	}
	b.m[key] = entry{v: value}
	return true, nil
}

func (b *Memory) Expire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.live(key)
	if !ok {
		return false, nil
	}
	e.exp = time.Now().Add(ttl)
	b.m[key] = e
	return true, nil
}

// Persistent is false: data lives and dies with the process.
func (b *Memory) Persistent() bool { return false }

func (b *Memory) Close(context.Context) error { return nil }

// globMatch reports whether name matches a Redis-style glob pattern:
// '*' any run, '?' any single byte, '[...]' a byte class, '\' escapes the
// next byte. Unlike path.Match, no byte is a separator.
func globMatch(pattern, name string) bool {
	p, n := 0, 0
	starP, starN := -1, 0
	for n < len(name) {
		if p < len(pattern) {
			switch pattern[p] {
			case '*':
				starP, starN = p, n
				p++
				continue
			case '?':
				p++
				n++
				continue
			case '[':
				if ok, next := matchClass(pattern, p, name[n]); ok {
					p = next
					n++
					continue
				}
			case '\\':
				if p+1 < len(pattern) && pattern[p+1] == name[n] {
					p += 2
					n++
					continue
				}
			default:
				if pattern[p] == name[n] {
					p++
					n++
					continue
				}
			}
		}
		if starP >= 0 {
			starN++
			p, n = starP+1, starN
			continue
		}
		return false
	}
	for p < len(pattern) && pattern[p] == '*' {
		p++
	}
	return p == len(pattern)
}

// matchClass matches name byte c against the class opening at pattern[p]
// ('['). Returns whether c matched and the index just past the class.
func matchClass(pattern string, p int, c byte) (bool, int) {
	i := p + 1
	negate := false
	if i < len(pattern) && pattern[i] == '^' {
		negate = true
		i++
	}
	matched := false
	for i < len(pattern) && pattern[i] != ']' {
		lo := pattern[i]
		if lo == '\\' && i+1 < len(pattern) {
			i++
			lo = pattern[i]
		}
		hi := lo
		if i+2 < len(pattern) && pattern[i+1] == '-' && pattern[i+2] != ']' {
			hi = pattern[i+2]
			i += 2
		}
		if lo <= c && c <= hi {
			matched = true
		}
		i++
	}
	if i >= len(pattern) {
		// unterminated class never matches
		return false, i
	}
	return matched != negate, i + 1
}
