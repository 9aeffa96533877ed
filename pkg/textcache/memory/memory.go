// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/leseb/fileindexer/pkg/textcache"
)

func init() {
	textcache.Providers.Register("memory", func(_ context.Context, _ map[string]string) (textcache.Cache, error) {
		return New(), nil
	})
}

// compile-time check
var _ textcache.Cache = (*Cache)(nil)

// Cache is an in-memory result cache.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]textcache.Entry
}

// New creates a new in-memory cache.
func New() *Cache {
	return &Cache{entries: make(map[string]textcache.Entry)}
}

// Get returns a copy of the entry for key.
func (c *Cache) Get(_ context.Context, key string) (*textcache.Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, fmt.Errorf("key %s: %w", key, textcache.ErrNotFound)
	}
	return &e, nil
}

// Put stores or replaces the entry.
func (c *Cache) Put(_ context.Context, entry *textcache.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := *entry
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now().UTC()
	}
	c.entries[e.Key] = e
	return nil
}

// Delete removes the entry for key.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		return fmt.Errorf("key %s: %w", key, textcache.ErrNotFound)
	}
	delete(c.entries, key)
	return nil
}

// Close is a no-op for the in-memory cache.
func (c *Cache) Close() error {
	return nil
}
