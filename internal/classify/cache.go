package classify

import (
	"sync"
	"time"

	"github.com/troupehq/troupe/pkg/models"
)

// cacheEntry is one cached classification.
type cacheEntry struct {
	result   models.Classification
	storedAt time.Time
}

// Cache is a bounded TTL cache keyed by normalized question text.
// Entries past the TTL are treated as stale on read rather than
// actively evicted; the capacity bound evicts the oldest entry when a
// new one would exceed it.
type Cache struct {
	ttl      time.Duration
	capacity int
	entries  map[string]cacheEntry
	mu       sync.Mutex
}

// NewCache creates a Cache with the given TTL and soft capacity bound.
func NewCache(ttl time.Duration, capacity int) *Cache {
	if capacity < 1 {
		capacity = 1
	}
	return &Cache{
		ttl:      ttl,
		capacity: capacity,
		entries:  make(map[string]cacheEntry),
	}
}

// Get returns the cached classification for key if present and fresh.
func (c *Cache) Get(key string) (models.Classification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return models.Classification{}, false
	}
	if time.Since(entry.storedAt) > c.ttl {
		// Stale. Leave it for the next Put to overwrite.
		return models.Classification{}, false
	}
	return entry.result, true
}

// Put stores a classification, evicting the oldest entry if the
// capacity bound would be exceeded.
func (c *Cache) Put(key string, result models.Classification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evictOldestLocked()
	}

	c.entries[key] = cacheEntry{result: result, storedAt: time.Now()}
}

// Len returns the number of entries currently held, fresh or stale.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictOldestLocked removes the entry with the oldest store time.
// Caller must hold c.mu. Linear scan is fine at the capacities used.
func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for key, entry := range c.entries {
		if first || entry.storedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.storedAt
			first = false
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
