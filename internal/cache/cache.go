// Package cache is the kiosk's menu-detail preloading layer: a bounded
// in-memory TTL cache, a tenant-scoped disk tier behind it, a batched
// detail loader, and a speculative image prefetcher.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Memory is a fixed-capacity TTL cache with LRU eviction. It is an
// explicitly constructed object with a lifecycle owned by the caller
// (one per application instance, dropped on tenant switch) rather than
// package-level state, so tenant isolation stays testable.
type Memory struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	entries  map[string]*list.Element
	order    *list.List // front = most recently used
	now      func() time.Time

	hits   uint64
	misses uint64
}

type memEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
	accesses  uint64
}

// NewMemory creates a cache holding at most capacity entries, each
// valid for ttl after insertion.
func NewMemory(capacity int, ttl time.Duration) *Memory {
	if capacity < 1 {
		capacity = 1
	}
	return &Memory{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		now:      time.Now,
	}
}

// Get returns the cached value for key, nil and false on a miss or an
// expired entry. A hit refreshes the entry's LRU position.
func (c *Memory) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	entry := el.Value.(*memEntry)
	if c.now().After(entry.expiresAt) {
		c.order.Remove(el)
		delete(c.entries, key)
		c.misses++
		return nil, false
	}

	entry.accesses++
	c.hits++
	c.order.MoveToFront(el)
	return entry.value, true
}

// Set stores a value, evicting the least recently used entry when full.
func (c *Memory) Set(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		entry := el.Value.(*memEntry)
		entry.value = value
		entry.expiresAt = c.now().Add(c.ttl)
		c.order.MoveToFront(el)
		return
	}

	for len(c.entries) >= c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*memEntry).key)
	}

	el := c.order.PushFront(&memEntry{
		key:       key,
		value:     value,
		expiresAt: c.now().Add(c.ttl),
	})
	c.entries[key] = el
}

// Delete removes a single entry.
func (c *Memory) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		c.order.Remove(el)
		delete(c.entries, key)
	}
}

// Purge drops every entry, used on logout/tenant switch.
func (c *Memory) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

// Stats is a diagnostics snapshot.
type Stats struct {
	Size     int
	Capacity int
	Hits     uint64
	Misses   uint64
}

func (c *Memory) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Size:     len(c.entries),
		Capacity: c.capacity,
		Hits:     c.hits,
		Misses:   c.misses,
	}
}

// Accesses reports how often a live entry has been read, 0 when absent.
func (c *Memory) Accesses(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		return el.Value.(*memEntry).accesses
	}
	return 0
}
