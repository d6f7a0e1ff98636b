// Package cache provides the in-process response cache for routed reviews.
package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/richhaase/interpeer/internal/domain"
)

// Entry is a stored review result and its creation time.
type Entry struct {
	Timestamp time.Time
	Result    domain.ReviewResult
}

// Cache is a TTL-expiring, capacity-bounded store keyed by request hash.
// Eviction is by insertion order; re-inserting a key makes it the freshest.
// Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List
	now     func() time.Time
}

type item struct {
	key   string
	entry Entry
}

// New creates an empty cache using the wall clock.
func New() *Cache {
	return NewWithClock(time.Now)
}

// NewWithClock creates an empty cache with an injected clock.
func NewWithClock(now func() time.Time) *Cache {
	return &Cache{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		now:     now,
	}
}

// Get returns a copy of the entry for key. An entry older than ttl is evicted
// and reported as missing; an entry exactly ttl old is still valid.
func (c *Cache) Get(key string, ttl time.Duration) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}
	it := el.Value.(*item)
	if c.now().Sub(it.entry.Timestamp) > ttl {
		c.order.Remove(el)
		delete(c.entries, key)
		return Entry{}, false
	}
	return Entry{Timestamp: it.entry.Timestamp, Result: it.entry.Result.Clone()}, true
}

// Put stores a copy of result under key, then evicts the oldest inserted
// entries while the cache holds more than maxEntries.
func (c *Cache) Put(key string, result domain.ReviewResult, maxEntries int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.order.Remove(el)
	}
	c.entries[key] = c.order.PushBack(&item{
		key:   key,
		entry: Entry{Timestamp: c.now(), Result: result.Clone()},
	})

	for c.order.Len() > maxEntries {
		oldest := c.order.Front()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*item).key)
	}
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Keys returns stored keys from oldest to newest insertion.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*item).key)
	}
	return keys
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
}
