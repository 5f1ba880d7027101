package media

import (
	"sync"
	"time"
)

// DefaultTTL is how long a cached attachment stays fresh
const DefaultTTL = 30 * time.Minute

// DefaultCapacity is the entry count above which stale entries are swept
const DefaultCapacity = 200

// Item is a cached attachment
type Item struct {
	Data        []byte
	ContentType string
	storedAt    time.Time
}

// Cache is an in-process attachment cache keyed by message id. Entries
// expire after the TTL, but are only swept when the entry count exceeds
// the capacity; below the capacity stale entries linger until evicted on
// read or by a later sweep. This is a best-effort memory bound, not an LRU.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]Item
	ttl      time.Duration
	capacity int
	now      func() time.Time
}

// NewCache creates a cache with the given TTL and sweep capacity.
// Non-positive arguments fall back to the defaults.
func NewCache(ttl time.Duration, capacity int) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		entries:  make(map[string]Item),
		ttl:      ttl,
		capacity: capacity,
		now:      time.Now,
	}
}

// Get returns the cached item for a key if present and younger than the TTL
func (c *Cache) Get(key string) (Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.entries[key]
	if !ok {
		return Item{}, false
	}
	if c.now().Sub(item.storedAt) >= c.ttl {
		delete(c.entries, key)
		return Item{}, false
	}
	return item, true
}

// Put stores an item. When the cache grows past its capacity, every entry
// older than the TTL is swept.
func (c *Cache) Put(key string, data []byte, contentType string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = Item{Data: data, ContentType: contentType, storedAt: now}

	if len(c.entries) > c.capacity {
		for k, item := range c.entries {
			if now.Sub(item.storedAt) >= c.ttl {
				delete(c.entries, k)
			}
		}
	}
}

// Len returns the number of entries currently held, stale or not
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
