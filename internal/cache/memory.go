package cache

import "sync"

// MemoryCache is a goroutine-safe map with hit/miss accounting. Entries
// are never evicted; they live as long as the cache.
type MemoryCache[V any] struct {
	mu    sync.RWMutex
	items map[string]V
	sizes map[string]int64
	size  func(V) int64
	stats Stats
}

// NewMemoryCache creates an empty cache. size reports the payload size of
// a value for statistics and may be nil.
func NewMemoryCache[V any](size func(V) int64) *MemoryCache[V] {
	return &MemoryCache[V]{
		items: make(map[string]V),
		sizes: make(map[string]int64),
		size:  size,
	}
}

// Get retrieves a value from the cache.
func (c *MemoryCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return v, false
	}

	c.stats.Hits++
	return v, true
}

// Put stores value under key, replacing any previous entry.
func (c *MemoryCache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.sizes[key]; ok {
		c.stats.Size -= old
	} else {
		c.stats.ItemCount++
	}

	c.items[key] = value
	var n int64
	if c.size != nil {
		n = c.size(value)
	}
	c.sizes[key] = n
	c.stats.Size += n
}

// Len returns the number of cached entries.
func (c *MemoryCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Stats returns a snapshot of the cache counters.
func (c *MemoryCache[V]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}
