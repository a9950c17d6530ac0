package prices

import (
	"sync"
	"time"

	"github.com/aristath/folio/internal/domain"
)

// DefaultCacheTTL bounds how long a fetched series is served without refetching.
const DefaultCacheTTL = 15 * time.Minute

// Clock returns the current time. Injected so expiry can be tested.
type Clock func() time.Time

type cacheKey struct {
	symbol string
	market domain.Market
}

type cacheEntry struct {
	series       Series
	coveredSince time.Time
	fetchedAt    time.Time
}

// Cache is an in-process TTL cache of series keyed by (symbol, market).
// It is owned by the caller and safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[cacheKey]cacheEntry
	ttl     time.Duration
	now     Clock
}

// CacheOption configures a Cache
type CacheOption func(*Cache)

// WithClock overrides the time source
func WithClock(clock Clock) CacheOption {
	return func(c *Cache) {
		c.now = clock
	}
}

// NewCache creates a cache with the given TTL (DefaultCacheTTL when ttl <= 0).
func NewCache(ttl time.Duration, opts ...CacheOption) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c := &Cache{
		entries: make(map[cacheKey]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a copy of the cached series when it is fresh and covers since.
func (c *Cache) Get(symbol string, market domain.Market, since time.Time) (Series, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[cacheKey{symbol, market}]
	if !ok || c.expired(e) {
		return nil, false
	}
	if domain.Day(since).Before(e.coveredSince) {
		return nil, false
	}
	return e.series.clone(), true
}

// Peek returns a copy of whatever is cached for the key, fresh or not.
func (c *Cache) Peek(symbol string, market domain.Market) (Series, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[cacheKey{symbol, market}]
	if !ok || len(e.series) == 0 {
		return nil, false
	}
	return e.series.clone(), true
}

// Put merges incoming points into the cached series and refreshes the entry.
// Coverage extends to the earliest since seen for the key.
func (c *Cache) Put(symbol string, market domain.Market, since time.Time, incoming []Point) Series {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey{symbol, market}
	since = domain.Day(since)
	e, ok := c.entries[key]
	if ok && !e.coveredSince.IsZero() && e.coveredSince.Before(since) && !c.expired(e) {
		since = e.coveredSince
	}

	merged := Merge(e.series, incoming)
	c.entries[key] = cacheEntry{
		series:       merged,
		coveredSince: since,
		fetchedAt:    c.now(),
	}
	return merged.clone()
}

// Prune drops expired entries and returns how many were removed.
func (c *Cache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of cached keys.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) expired(e cacheEntry) bool {
	return c.now().Sub(e.fetchedAt) > c.ttl
}
