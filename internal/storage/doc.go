// Package storage groups the key-value storage of redikv.
//
//   - memory: the store itself, a value map and an expiry map behind one lock
//   - expiry: the background sweeper that evicts expired keys
//
// Data lives in memory only. Nothing is written to disk.
package storage
