// Package memory provides the in-memory storage engine for redikv.
//
// The store keeps two maps over one key space:
//
//   - values: key -> value, present for every live key
//   - expiry: key -> absolute expiry (Unix milliseconds), present only for
//     keys written with a TTL
//
// Every key in the expiry map is also in the values map. A key absent from the
// expiry map never expires.
//
// Thread Safety:
//
// A single sync.RWMutex covers both maps as a unit. Reads take the read lock and
// may run in parallel; any write takes the exclusive lock. There is no per-key
// locking.
//
// The store applies no expiration policy of its own. The command router expires
// keys lazily on access (DeleteIfExpired) and the background sweeper expires
// them actively (DeleteExpired).
package memory
