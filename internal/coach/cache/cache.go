// Package cache provides an LRU cache with TTL for coach replies, so asking
// the same question under the same session conditions does not cost a second
// remote call.
package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"
)

// Cache is an LRU cache of reply strings with per-entry expiry.
type Cache struct {
	mu         sync.RWMutex
	maxEntries int
	ttl        time.Duration
	items      map[string]*list.Element
	evictList  *list.List
	stats      Stats
}

type entry struct {
	key       string
	reply     string
	expiresAt time.Time
}

// Stats tracks cache effectiveness.
type Stats struct {
	Hits        int64
	Misses      int64
	Evictions   int64
	Expirations int64
}

// New creates a cache with the given capacity and TTL.
func New(maxEntries int, ttl time.Duration) *Cache {
	if maxEntries <= 0 {
		maxEntries = 50
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Cache{
		maxEntries: maxEntries,
		ttl:        ttl,
		items:      make(map[string]*list.Element),
		evictList:  list.New(),
	}
}

// Get returns the cached reply for key, if present and not expired.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return "", false
	}

	ent := elem.Value.(*entry)
	if time.Now().After(ent.expiresAt) {
		c.removeElement(elem)
		c.stats.Expirations++
		c.stats.Misses++
		return "", false
	}

	c.evictList.MoveToFront(elem)
	c.stats.Hits++
	return ent.reply, true
}

// Set stores a reply, evicting the least recently used entry past capacity.
func (c *Cache) Set(key, reply string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.evictList.MoveToFront(elem)
		ent := elem.Value.(*entry)
		ent.reply = reply
		ent.expiresAt = time.Now().Add(c.ttl)
		return
	}

	elem := c.evictList.PushFront(&entry{
		key:       key,
		reply:     reply,
		expiresAt: time.Now().Add(c.ttl),
	})
	c.items[key] = elem

	for c.evictList.Len() > c.maxEntries {
		c.removeOldest()
	}
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.evictList.Len()
}

// Stats returns a copy of the cache statistics.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

func (c *Cache) removeOldest() {
	if elem := c.evictList.Back(); elem != nil {
		c.removeElement(elem)
		c.stats.Evictions++
	}
}

func (c *Cache) removeElement(elem *list.Element) {
	c.evictList.Remove(elem)
	delete(c.items, elem.Value.(*entry).key)
}

// HashKey derives a cache key from arbitrary values by hashing their JSON
// encoding.
func HashKey(values ...any) string {
	h := sha256.New()
	for _, v := range values {
		b, _ := json.Marshal(v)
		h.Write(b)
	}
	return hex.EncodeToString(h.Sum(nil))[:32]
}
