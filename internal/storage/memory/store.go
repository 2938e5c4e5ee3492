package memory

import (
	"context"
	"sync"
)

// NoExpiry marks an entry without a TTL. Expiries are Unix milliseconds and
// never negative, so epoch 0 stays a real expiry.
const NoExpiry int64 = -1

// Entry is the result of a read: the stored value and, if the key has a TTL,
// its absolute expiry in Unix milliseconds.
type Entry struct {
	Value     string
	ExpiresAt int64
}

// HasExpiry reports whether the entry carries a TTL.
func (e Entry) HasExpiry() bool {
	return e.ExpiresAt != NoExpiry
}

// Expired reports whether the entry's expiry lies strictly before nowMs.
func (e Entry) Expired(nowMs int64) bool {
	return e.HasExpiry() && e.ExpiresAt < nowMs
}

// Store is the shared key-value storage of the server.
type Store struct {
	// Primary map: key -> value
	values map[string]string

	// Expiry map: key -> absolute expiry (ms), only for keys with a TTL
	expiry map[string]int64

	// Covers both maps
	mu sync.RWMutex
}

// New creates an empty store.
func New() *Store {
	return &Store{
		values: make(map[string]string),
		expiry: make(map[string]int64),
	}
}

// Create upserts key -> value.
//
// With expiresAt != NoExpiry the expiry is recorded as well. With NoExpiry any
// TTL left over from an earlier write is discarded, so a plain SET always
// yields a persistent key.
func (s *Store) Create(_ context.Context, key, value string, expiresAt int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	if expiresAt != NoExpiry {
		s.expiry[key] = expiresAt
	} else {
		delete(s.expiry, key)
	}
}

// Read returns the entry for key, or false if the key is not in the primary map.
// The expiry is looked up independently and is NoExpiry for persistent keys.
func (s *Store) Read(_ context.Context, key string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return Entry{}, false
	}
	e := Entry{Value: value, ExpiresAt: NoExpiry}
	if at, ok := s.expiry[key]; ok {
		e.ExpiresAt = at
	}
	return e, true
}

// Delete removes key from both maps. Deleting a missing key is a no-op.
func (s *Store) Delete(_ context.Context, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	delete(s.expiry, key)
}

// DeleteIfExpired removes key only if, under the write lock, it still has an
// expiry strictly before nowMs. A key overwritten between a reader's check and
// this call is therefore left alone.
func (s *Store) DeleteIfExpired(_ context.Context, key string, nowMs int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	at, ok := s.expiry[key]
	if !ok || at >= nowMs {
		return false
	}
	delete(s.values, key)
	delete(s.expiry, key)
	return true
}

// DeleteExpired removes every key whose expiry lies strictly before nowMs and
// returns how many were removed. The whole pass holds the write lock.
func (s *Store) DeleteExpired(_ context.Context, nowMs int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	// Deleting from a map while ranging over it is safe in Go.
	for key, at := range s.expiry {
		if at < nowMs {
			delete(s.values, key)
			delete(s.expiry, key)
			count++
		}
	}
	return count
}

// Len returns the number of live keys, expired-but-not-yet-evicted included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// ExpiringLen returns the number of keys that carry a TTL.
func (s *Store) ExpiringLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.expiry)
}
