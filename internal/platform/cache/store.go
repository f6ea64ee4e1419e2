package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry struct {
	value     any
	storedAt  time.Time
	expiresAt time.Time
}

// Store is a concurrency-safe keyed cache. A zero ttl keeps entries until they
// are deleted explicitly.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	flight  singleflight.Group
	now     func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *Store) Get(ctx context.Context, key string) (any, bool) {
	value, _, ok := s.GetWithTime(ctx, key)
	return value, ok
}

// GetWithTime returns the cached value and the time it was stored.
func (s *Store) GetWithTime(_ context.Context, key string) (any, time.Time, bool) {
	if key == "" {
		return nil, time.Time{}, false
	}

	now := s.now()
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, time.Time{}, false
	}
	if s.expired(e, now) {
		s.mu.Lock()
		if current, ok := s.entries[key]; ok && s.expired(current, now) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, time.Time{}, false
	}

	return e.value, e.storedAt, true
}

func (s *Store) Set(_ context.Context, key string, value any) {
	if key == "" {
		return
	}

	now := s.now()
	s.mu.Lock()
	s.entries[key] = s.newEntry(value, now)
	s.mu.Unlock()
}

// SetIfAbsent stores value unless a live entry already exists for key.
// It reports whether the value was stored.
func (s *Store) SetIfAbsent(_ context.Context, key string, value any) bool {
	if key == "" {
		return false
	}

	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok && !s.expired(e, now) {
		return false
	}
	s.entries[key] = s.newEntry(value, now)
	return true
}

func (s *Store) Delete(_ context.Context, key string) {
	if key == "" {
		return
	}

	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Clear drops every entry and returns how many were removed.
func (s *Store) Clear(_ context.Context) int {
	s.mu.Lock()
	n := len(s.entries)
	s.entries = make(map[string]entry)
	s.mu.Unlock()
	return n
}

// Prune removes expired entries and returns how many were removed.
func (s *Store) Prune(_ context.Context) int {
	if s.ttl <= 0 {
		return 0
	}

	now := s.now()
	removed := 0
	s.mu.Lock()
	for key, e := range s.entries {
		if s.expired(e, now) {
			delete(s.entries, key)
			removed++
		}
	}
	s.mu.Unlock()
	return removed
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (any, error)) (any, error) {
	if loader == nil {
		return nil, fmt.Errorf("loader is required")
	}
	if key == "" {
		return loader(ctx)
	}

	if value, ok := s.Get(ctx, key); ok {
		return value, nil
	}

	value, err, _ := s.flight.Do(key, func() (any, error) {
		if cached, ok := s.Get(ctx, key); ok {
			return cached, nil
		}

		loaded, loadErr := loader(ctx)
		if loadErr != nil {
			return nil, loadErr
		}
		s.Set(ctx, key, loaded)
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}

	return value, nil
}

func (s *Store) newEntry(value any, now time.Time) entry {
	e := entry{value: value, storedAt: now}
	if s.ttl > 0 {
		e.expiresAt = now.Add(s.ttl)
	}
	return e
}

func (s *Store) expired(e entry, now time.Time) bool {
	return s.ttl > 0 && !e.expiresAt.After(now)
}
