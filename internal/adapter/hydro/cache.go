package hydro

import (
	"context"
	"sync"
	"time"

	"github.com/couchcryptid/river-flow-report/internal/domain"
)

// CachedProvider wraps a Provider with an in-memory LRU cache whose entries
// expire after a TTL. Catalogs often list the same station on several rows.
type CachedProvider struct {
	inner domain.Provider
	cache *lruCache
}

// NewCachedProvider creates a cache decorator around a provider.
func NewCachedProvider(inner domain.Provider, maxEntries int, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		inner: inner,
		cache: newLRUCache(maxEntries, ttl),
	}
}

// Name implements domain.Provider.
func (c *CachedProvider) Name() string { return c.inner.Name() }

// Fetch implements domain.Provider. Failed fetches are not cached.
func (c *CachedProvider) Fetch(ctx context.Context, station string) (domain.CanonicalReading, error) {
	if reading, ok := c.cache.get(station); ok {
		return reading, nil
	}
	reading, err := c.inner.Fetch(ctx, station)
	if err != nil {
		return reading, err
	}
	c.cache.put(station, reading)
	return reading, nil
}

// lruCache is a thread-safe LRU cache of readings with per-entry expiry.
type lruCache struct {
	maxEntries int
	ttl        time.Duration
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key     string
	value   domain.CanonicalReading
	expires time.Time
	prev    *entry
	next    *entry
}

func newLRUCache(maxEntries int, ttl time.Duration) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		ttl:        ttl,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (domain.CanonicalReading, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.CanonicalReading{}, false
	}
	if !domain.Now().Before(e.expires) {
		c.delete(e)
		return domain.CanonicalReading{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.CanonicalReading) {
	if c.maxEntries <= 0 || c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	expires := domain.Now().Add(c.ttl)
	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expires = expires
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value, expires: expires}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.delete(c.tail)
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) delete(e *entry) {
	if e == nil {
		return
	}
	delete(c.entries, e.key)
	c.unlink(e)
}
