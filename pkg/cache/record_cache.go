// Package cache provides the resolver's signed-record cache: a bounded,
// per-entry-TTL, LRU-evicted store keyed by public key. Adapted from a
// container/list + sync.RWMutex query cache shape - the LRU/TTL
// combination carries over unchanged, but the key space becomes
// identity.PublicKey, the value becomes signed packet bytes, and TTL
// moves from a cache-wide setting to a per-insertion value computed from
// the packet's own answer records.
package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/pknames/pknames-go/pkg/identity"
)

// DefaultCapacity is the default number of cached records.
const DefaultCapacity = 100

// MinTTL and DefaultMaxTTL bound every cache entry's effective TTL: never
// below 60s regardless of what the packet claims, never above the
// configured maximum, which itself defaults to one hour. Setting the
// configured max to 1s effectively disables caching.
const (
	MinTTL        = 60 * time.Second
	DefaultMaxTTL = time.Hour
)

// ClampTTL applies rule: clamp(min(answer TTLs), 60s, maxTTL).
func ClampTTL(minAnswerTTL time.Duration, maxTTL time.Duration) time.Duration {
	if maxTTL <= 0 {
		maxTTL = DefaultMaxTTL
	}
	ttl := minAnswerTTL
	if ttl < MinTTL {
		ttl = MinTTL
	}
	if ttl > maxTTL {
		ttl = maxTTL
	}
	return ttl
}

// RecordCache is a thread-safe, capacity-bounded, per-entry-TTL cache of
// serialised signed DNS packets, keyed by the public key they answer for.
type RecordCache struct {
	mu sync.RWMutex

	maxSize int

	list  *list.List
	items map[identity.PublicKey]*list.Element

	hits   uint64
	misses uint64
}

type recordEntry struct {
	key       identity.PublicKey
	packet    []byte
	expiresAt time.Time
}

// NewRecordCache builds a cache with the given capacity; a non-positive
// capacity falls back to DefaultCapacity.
func NewRecordCache(maxSize int) *RecordCache {
	if maxSize <= 0 {
		maxSize = DefaultCapacity
	}
	return &RecordCache{
		maxSize: maxSize,
		list:    list.New(),
		items:   make(map[identity.PublicKey]*list.Element, maxSize),
	}
}

// Get returns the cached packet for key, if present and unexpired.
func (c *RecordCache) Get(key identity.PublicKey) ([]byte, bool) {
	c.mu.RLock()
	elem, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		c.mu.Lock()
		c.misses++
		c.mu.Unlock()
		return nil, false
	}

	entry := elem.Value.(*recordEntry)
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		c.removeElement(elem)
		c.misses++
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	c.list.MoveToFront(elem)
	c.hits++
	c.mu.Unlock()

	return entry.packet, true
}

// Put inserts or replaces the packet cached for key, expiring after ttl.
// Two concurrent resolutions for the same key may both miss and both
// Put; the later write simply wins since
// signed packets are self-authenticating.
func (c *RecordCache) Put(key identity.PublicKey, packet []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := time.Now().Add(ttl)

	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*recordEntry)
		entry.packet = packet
		entry.expiresAt = expiresAt
		c.list.MoveToFront(elem)
		return
	}

	for c.list.Len() >= c.maxSize {
		c.evictOldest()
	}

	entry := &recordEntry{key: key, packet: packet, expiresAt: expiresAt}
	elem := c.list.PushFront(entry)
	c.items[key] = elem
}

// Remove drops key from the cache, if present.
func (c *RecordCache) Remove(key identity.PublicKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
}

// Len returns the number of cached entries, including any not yet lazily
// expired.
func (c *RecordCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.list.Len()
}

// Stats reports cache hit/miss counters.
func (c *RecordCache) Stats() RecordCacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	total := c.hits + c.misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(c.hits) / float64(total) * 100
	}
	return RecordCacheStats{
		Size:    c.list.Len(),
		MaxSize: c.maxSize,
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: hitRate,
	}
}

// RecordCacheStats holds cache performance counters.
type RecordCacheStats struct {
	Size    int
	MaxSize int
	Hits    uint64
	Misses  uint64
	HitRate float64
}

func (c *RecordCache) evictOldest() {
	elem := c.list.Back()
	if elem != nil {
		c.removeElement(elem)
	}
}

func (c *RecordCache) removeElement(elem *list.Element) {
	c.list.Remove(elem)
	entry := elem.Value.(*recordEntry)
	delete(c.items, entry.key)
}
