package cache

import (
	"errors"
	"time"
)

// LayeredCache checks a fast cache before a slow one and promotes slow hits
type LayeredCache struct {
	fast Cache
	slow Cache
}

// NewLayeredCache creates a memory cache in front of a disk cache
func NewLayeredCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *LayeredCache {
	return NewLayered(
		NewMemoryCache(memoryTTL, 10*time.Minute),
		NewDiskCache(diskDir, diskTTL),
	)
}

// NewLayered stacks two arbitrary caches
func NewLayered(fast, slow Cache) *LayeredCache {
	return &LayeredCache{fast: fast, slow: slow}
}

// Get checks the fast layer first, then the slow one
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if val, found := c.fast.Get(key); found {
		return val, true
	}

	if val, found := c.slow.Get(key); found {
		_ = c.fast.Set(key, val, 0)
		return val, true
	}

	return nil, false
}

// Set stores a value in both layers
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.fast.Set(key, value, ttl); err != nil {
		return err
	}
	return c.slow.Set(key, value, ttl)
}

// Delete removes a value from both layers
func (c *LayeredCache) Delete(key string) error {
	return errors.Join(c.fast.Delete(key), c.slow.Delete(key))
}

// Clear removes all values from both layers
func (c *LayeredCache) Clear() error {
	return errors.Join(c.fast.Clear(), c.slow.Clear())
}
