package dash

import (
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ViewCache keeps the responses computed for a view. Concurrent requests for
// the same key share a single computation.
type ViewCache struct {
	group singleflight.Group

	mu    sync.RWMutex
	items map[string][]byte
	gen   uint64
}

func NewViewCache() *ViewCache {
	return &ViewCache{
		items: make(map[string][]byte),
	}
}

// Get returns the value cached under key, computing it with fn when absent.
// Errors are not cached.
func (c *ViewCache) Get(key string, fn func() ([]byte, error)) ([]byte, error) {
	c.mu.RLock()
	buf, ok := c.items[key]
	gen := c.gen
	c.mu.RUnlock()
	if ok {
		return buf, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		buf, err := fn()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gen == gen {
			c.items[key] = buf
		}
		return buf, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Invalidate drops the entries whose key starts with one of the prefixes,
// or every entry without prefix.
func (c *ViewCache) Invalidate(prefix ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if len(prefix) == 0 {
		clear(c.items)
		return
	}
	for k := range c.items {
		for _, p := range prefix {
			if strings.HasPrefix(k, p) {
				delete(c.items, k)
				break
			}
		}
	}
}

func (c *ViewCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
