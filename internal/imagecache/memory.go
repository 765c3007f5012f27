package imagecache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultMemoryEntries bounds the in-process tier.
const DefaultMemoryEntries = 100

// Memory is a bounded LRU cache safe for concurrent use. Entries older
// than the TTL read as misses.
type Memory struct {
	lru *expirable.LRU[string, []byte]
}

// NewMemory creates a cache holding at most maxEntries values for ttl.
// A non-positive size uses DefaultMemoryEntries; a non-positive ttl never
// expires entries.
func NewMemory(maxEntries int, ttl time.Duration) *Memory {
	if maxEntries <= 0 {
		maxEntries = DefaultMemoryEntries
	}
	return &Memory{lru: expirable.NewLRU[string, []byte](maxEntries, nil, ttl)}
}

// Get implements Cache.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	return m.lru.Get(key)
}

// Put implements Cache. The least recently used entry is evicted when full.
func (m *Memory) Put(_ context.Context, key string, data []byte) error {
	m.lru.Add(key, data)
	return nil
}

// Len returns the number of cached entries, expired ones included until
// they are swept.
func (m *Memory) Len() int {
	return m.lru.Len()
}
