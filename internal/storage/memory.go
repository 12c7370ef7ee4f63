package storage

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/codetree/pkg/types"
)

// DefaultMemoryEntries is used when NewMemoryCache is given a non-positive size
const DefaultMemoryEntries = 16

// MemoryCache keeps recently used tables in process and falls through to a
// persistent backend. Returned tables are shared and must not be mutated.
type MemoryCache struct {
	next  Cache
	cache *lru.Cache[string, *types.FunctionTable]
}

// NewMemoryCache wraps next with an LRU holding up to size tables
func NewMemoryCache(next Cache, size int) (*MemoryCache, error) {
	if size <= 0 {
		size = DefaultMemoryEntries
	}
	c, err := lru.New[string, *types.FunctionTable](size)
	if err != nil {
		return nil, err
	}
	return &MemoryCache{next: next, cache: c}, nil
}

// Get serves key from memory, loading it from the backend on a miss
func (m *MemoryCache) Get(ctx context.Context, key string) (*types.FunctionTable, error) {
	if table, ok := m.cache.Get(key); ok {
		return table, nil
	}

	table, err := m.next.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	m.cache.Add(key, table)
	return table, nil
}

// Put writes through to the backend before caching table
func (m *MemoryCache) Put(ctx context.Context, key string, table *types.FunctionTable) error {
	if err := m.next.Put(ctx, key, table); err != nil {
		m.cache.Remove(key)
		return err
	}
	m.cache.Add(key, table)
	return nil
}

// Delete evicts key and removes the backend record
func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	m.cache.Remove(key)
	return m.next.Delete(ctx, key)
}

// Len returns the number of tables held in memory
func (m *MemoryCache) Len() int {
	return m.cache.Len()
}

// Close drops the in-memory tables and closes the backend
func (m *MemoryCache) Close() error {
	m.cache.Purge()
	return m.next.Close()
}
