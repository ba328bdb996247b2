package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     any
	tag       string
	expiresAt time.Time
}

// Store is an in-process TTL cache whose entries carry a tag identifying the
// source data they were derived from. A lookup with a different tag misses,
// so a cached value derived from since-corrected records is never served.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		entries: make(map[string]entry),
		ttl:     ttl,
	}
}

// Get returns the cached value when the key exists, has not expired, and was
// stored under the same tag.
func (s *Store) Get(_ context.Context, key, tag string) (any, bool) {
	if key == "" {
		return nil, false
	}

	now := time.Now()
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.ttl > 0 && !e.expiresAt.After(now) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, false
	}
	if e.tag != tag {
		return nil, false
	}

	return e.value, true
}

func (s *Store) Set(_ context.Context, key, tag string, value any) {
	if key == "" {
		return
	}

	expiresAt := time.Time{}
	if s.ttl > 0 {
		expiresAt = time.Now().Add(s.ttl)
	}

	s.mu.Lock()
	s.entries[key] = entry{
		value:     value,
		tag:       tag,
		expiresAt: expiresAt,
	}
	s.mu.Unlock()
}

func (s *Store) Delete(_ context.Context, key string) {
	if key == "" {
		return
	}

	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}
