package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is a bounded in-process Store. When full, the least recently
// used entry is evicted.
type MemoryStore struct {
	mu    sync.Mutex // serialises pattern deletes against writes
	items *lru.Cache[string, entry]
	now   func() time.Time
}

// NewMemoryStore creates a MemoryStore holding at most size entries.
func NewMemoryStore(size int) (*MemoryStore, error) {
	items, err := lru.New[string, entry](size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheFailure, err)
	}
	return &MemoryStore{items: items, now: time.Now}, nil
}

// SetClock replaces the time source. Intended for tests.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.now = now
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := m.items.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(e.expiresAt) {
		m.items.Remove(key)
		return nil, false, nil
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	v := make([]byte, len(value))
	copy(v, value)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.items.Add(key, entry{value: v, expiresAt: m.now().Add(ttl)})
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, pattern string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, prefix := IsPrefixPattern(pattern); !prefix {
		if m.items.Remove(pattern) {
			return 1, nil
		}
		return 0, nil
	}

	n := 0
	for _, key := range m.items.Keys() {
		if Matches(pattern, key) && m.items.Remove(key) {
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored entries, including expired ones not yet evicted.
func (m *MemoryStore) Len() int {
	return m.items.Len()
}
