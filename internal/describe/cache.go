// Package describe caches dataset descriptions fetched on demand.
package describe

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Source fetches the description of one dataset.
type Source interface {
	Describe(ctx context.Context, key string) (string, error)
}

// Cache remembers successful lookups for its whole lifetime. Failures are
// not cached so a later hover retries. One cache belongs to one session.
type Cache struct {
	src   Source
	group singleflight.Group

	mu      sync.RWMutex
	entries map[string]string
}

// NewCache creates a cache over src. A nil src makes every lookup return
// an empty description.
func NewCache(src Source) *Cache {
	return &Cache{src: src, entries: make(map[string]string)}
}

// Get returns the description for key.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	if c.src == nil || key == "" {
		return "", nil
	}

	c.mu.RLock()
	text, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return text, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		text, err := c.src.Describe(ctx, key)
		if err != nil {
			return "", err
		}
		c.mu.Lock()
		c.entries[key] = text
		c.mu.Unlock()
		return text, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Len returns the number of cached descriptions.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
