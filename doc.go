// Package hashtable implements a thin abstraction over a remote key-value
// store (Redis being the primary backend) with a uniform get/set/delete/exists
// API, an in-process negative-result cache, key namespacing via a configurable
// prefix, and a cooperative distributed lock built on set-if-not-exists.
//
// Components:
//   - Backend: the store contract (batched get/exists/delete, conditional set,
//     pattern scan). Drivers live under backend/ (redis, memory).
//   - Table: the dispatcher. Consults a local set of keys confirmed absent to
//     skip redundant round-trips, derives namespaced physical keys, and
//     coordinates all calls against the backend.
//   - Lock/Acquire/Unlock: blocking mutual exclusion across processes using
//     the backend's atomic set-if-absent plus a TTL safety net.
//
// Keys:
//
//	<prefix><key>                 - data entries
//	<prefix><md5hex(key)>.lock    - lock entries (hash over the key body only)
//
// The negative cache is an optimization, not a source of truth: it is private
// to a Table instance, never expires on a timer, and is safe to lose.
package hashtable
