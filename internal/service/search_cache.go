package service

import (
	"context"
	"sync"
	"time"
)

// SearchCacheStore caches serialized search results under a namespace so a
// whole namespace can be dropped when the underlying data changes.
type SearchCacheStore interface {
	Get(ctx context.Context, namespace, key string) ([]byte, bool, error)
	Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, namespace string) error
}

type searchCacheEntry struct {
	payload   []byte
	expiresAt time.Time
}

type InMemorySearchCacheStore struct {
	mu    sync.RWMutex
	store map[string]map[string]searchCacheEntry
}

func NewInMemorySearchCacheStore() *InMemorySearchCacheStore {
	return &InMemorySearchCacheStore{store: make(map[string]map[string]searchCacheEntry)}
}

func (s *InMemorySearchCacheStore) Get(_ context.Context, namespace, key string) ([]byte, bool, error) {
	now := time.Now()
	s.mu.RLock()
	entry, ok := s.store[namespace][key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if now.After(entry.expiresAt) {
		s.mu.Lock()
		if ns, ok := s.store[namespace]; ok {
			delete(ns, key)
			if len(ns) == 0 {
				delete(s.store, namespace)
			}
		}
		s.mu.Unlock()
		return nil, false, nil
	}
	return append([]byte(nil), entry.payload...), true, nil
}

func (s *InMemorySearchCacheStore) Set(_ context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.store[namespace]
	if !ok {
		ns = make(map[string]searchCacheEntry)
		s.store[namespace] = ns
	}
	ns[key] = searchCacheEntry{
		payload:   append([]byte(nil), value...),
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (s *InMemorySearchCacheStore) Invalidate(_ context.Context, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.store, namespace)
	return nil
}
