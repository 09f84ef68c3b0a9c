package store

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned when no fresh entry exists for a key.
	ErrNotFound = errors.New("no cached entry for key")
)

type entry[V any] struct {
	value     V
	fetchedAt time.Time
}

// QueryCache is a concurrency-safe in-memory cache of query results keyed by
// string. Entries older than maxAge are treated as missing; when the cache
// grows beyond maxEntries the oldest entry is evicted.
type QueryCache[V any] struct {
	mu sync.RWMutex

	data map[string]entry[V]

	// retention configuration
	maxEntries int           // <= 0 means unlimited
	maxAge     time.Duration // <= 0 means entries never go stale

	now func() time.Time
}

// NewQueryCache creates a new cache with optional limits.
func NewQueryCache[V any](maxEntries int, maxAge time.Duration) *QueryCache[V] {
	return &QueryCache[V]{
		data:       make(map[string]entry[V]),
		maxEntries: maxEntries,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// Get returns the fresh value for key, or ErrNotFound.
func (s *QueryCache[V]) Get(key string) (V, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[key]
	if !ok || s.stale(e) {
		var zero V
		return zero, ErrNotFound
	}
	return e.value, nil
}

// Set stores value for key and enforces retention.
func (s *QueryCache[V]) Set(key string, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = entry[V]{value: value, fetchedAt: s.now()}

	// Enforce retention by age.
	for k, e := range s.data {
		if s.stale(e) {
			delete(s.data, k)
		}
	}

	// Enforce retention by count.
	for s.maxEntries > 0 && len(s.data) > s.maxEntries {
		var oldestKey string
		var oldest time.Time
		for k, e := range s.data {
			if oldestKey == "" || e.fetchedAt.Before(oldest) {
				oldestKey, oldest = k, e.fetchedAt
			}
		}
		delete(s.data, oldestKey)
	}
}

// Invalidate drops key so the next Get misses.
func (s *QueryCache[V]) Invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

// Len returns the number of stored entries, stale or not.
func (s *QueryCache[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *QueryCache[V]) stale(e entry[V]) bool {
	return s.maxAge > 0 && s.now().Sub(e.fetchedAt) > s.maxAge
}
