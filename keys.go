package hashtable

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// KeyKind selects the physical-key derivation rule.
type KeyKind int

const (
	// KeyData maps a logical key to <prefix><key>.
	KeyData KeyKind = iota

	// KeyLock maps a logical key to <prefix><md5hex(key)>.lock. Hashing the
	// key body (never the prefix) keeps prefix-scoped bulk deletion correct
	// and guarantees lock keys cannot collide with data keys.
	KeyLock
)

const lockSuffix = ".lock"

// physicalKey derives the backend key for a logical key. Pure function of
// (prefix, key, kind).
func physicalKey(prefix, key string, kind KeyKind) string {
	if kind == KeyLock {
		sum := md5.Sum([]byte(key))
		return prefix + hex.EncodeToString(sum[:]) + lockSuffix
	}
	return prefix + key
}

// glob metacharacters recognized by Redis MATCH patterns.
const globSpecial = `*?[]^\`

// escapeGlob backslash-escapes glob metacharacters so a literal prefix can
// be used inside a scan pattern.
func escapeGlob(s string) string {
	if !strings.ContainsAny(s, globSpecial) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) * 2)
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(globSpecial, s[i]) >= 0 {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
