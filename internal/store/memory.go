package store

import (
	"context"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/i474232898/weather-forecast/internal/weather"
)

// DefaultMemoryRetention bounds how long an in-memory entry lives. Keys are day-scoped, so
// nothing older than a day is ever read again.
const DefaultMemoryRetention = 48 * time.Hour

// MemoryStore is a concurrency-safe in-memory cache store.
type MemoryStore struct {
	items *gocache.Cache

	hits   atomic.Int64
	misses atomic.Int64
}

// NewMemoryStore creates a MemoryStore whose entries expire after retention.
// If retention is <= 0, DefaultMemoryRetention is used.
func NewMemoryStore(retention time.Duration) *MemoryStore {
	if retention <= 0 {
		retention = DefaultMemoryRetention
	}
	return &MemoryStore{
		items: gocache.New(retention, retention/4),
	}
}

// Get returns the cached body for key.
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool) {
	v, ok := s.items.Get(key)
	if !ok {
		s.misses.Add(1)
		return "", false
	}
	body, ok := v.(string)
	if !ok {
		s.misses.Add(1)
		return "", false
	}
	s.hits.Add(1)
	return body, true
}

// Put stores value under key.
func (s *MemoryStore) Put(_ context.Context, key, value string) error {
	s.items.Set(key, value, gocache.DefaultExpiration)
	return nil
}

// Prune drops expired entries. Entries are not timestamped individually, so before is unused.
func (s *MemoryStore) Prune(_ context.Context, _ time.Time) (int, error) {
	n := s.items.ItemCount()
	s.items.DeleteExpired()
	return n - s.items.ItemCount(), nil
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	return s.items.ItemCount()
}

// Stats returns cache hit and miss counts.
func (s *MemoryStore) Stats() (hits, misses int64) {
	return s.hits.Load(), s.misses.Load()
}

func (s *MemoryStore) Close() error {
	return nil
}

var (
	_ weather.CacheStore = (*MemoryStore)(nil)
	_ weather.Pruner     = (*MemoryStore)(nil)
)
