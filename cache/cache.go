package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/use-agent/igprobe/models"
)

// entry holds a cached record with its creation timestamp.
type entry struct {
	record    *models.ProfileRecord
	createdAt time.Time
}

// Cache is a simple in-memory cache for profile records.
// It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	ttl        time.Duration
	now        func() time.Time

	stop chan struct{}
	once sync.Once
}

// New creates a new Cache holding at most maxEntries records for ttl each.
// A background goroutine evicts expired entries until Close is called.
func New(maxEntries int, ttl time.Duration) *Cache {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
		stop:       make(chan struct{}),
	}

	go c.cleanupLoop(cleanupInterval(ttl))
	return c
}

// Key normalizes a username into a cache key. Usernames are case-insensitive.
func Key(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Get retrieves a cached record if it exists and is younger than the TTL.
// Returns the record and whether it was a cache hit.
func (c *Cache) Get(username string) (*models.ProfileRecord, bool) {
	c.mu.RLock()
	e, ok := c.store[Key(username)]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if c.now().Sub(e.createdAt) > c.ttl {
		return nil, false
	}

	rec := *e.record
	return &rec, true
}

// Set stores a record in the cache. If the cache is at capacity,
// a random entry is evicted to make room.
func (c *Cache) Set(username string, rec *models.ProfileRecord) {
	if rec == nil {
		return
	}
	key := Key(username)
	cp := *rec

	c.mu.Lock()
	defer c.mu.Unlock()

	// Evict one random entry if at capacity (map iteration is random in Go).
	if _, exists := c.store[key]; !exists && len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[key] = &entry{
		record:    &cp,
		createdAt: c.now(),
	}
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Close stops the cleanup goroutine.
func (c *Cache) Close() {
	c.once.Do(func() { close(c.stop) })
}

func cleanupInterval(ttl time.Duration) time.Duration {
	switch {
	case ttl <= 0:
		return time.Minute
	case ttl < 5*time.Minute:
		return ttl
	default:
		return 5 * time.Minute
	}
}

// cleanupLoop evicts expired entries every interval.
func (c *Cache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *Cache) evictExpired() {
	cutoff := c.now().Add(-c.ttl)
	c.mu.Lock()
	for k, e := range c.store {
		if e.createdAt.Before(cutoff) {
			delete(c.store, k)
		}
	}
	c.mu.Unlock()
}
