package injection

import (
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/kailas-cloud/recall/internal/domain/memory"
)

// DefaultCacheTTL is how long a prepared injection is reused.
const DefaultCacheTTL = 5 * time.Minute

// CachedInjection is a cache entry with its insertion time.
type CachedInjection struct {
	Injection memory.Injection
	Timestamp time.Time
	TTL       time.Duration
}

// Expired reports whether the entry is older than its TTL at now.
func (c *CachedInjection) Expired(now time.Time) bool {
	return now.Sub(c.Timestamp) > c.TTL
}

// Cache is an in-process TTL cache of prepared injections keyed by "user:conversation".
// Expiry is checked on Get against the cache clock. A non-zero sweep interval also
// lets go-cache's janitor drop stale entries in the background.
type Cache struct {
	items *gocache.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewCache creates an injection cache. sweepInterval 0 disables the background sweep.
func NewCache(ttl, sweepInterval time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		items: gocache.New(ttl, sweepInterval),
		ttl:   ttl,
		now:   time.Now,
	}
}

// CacheKey builds the cache key for a user's conversation.
func CacheKey(userID, conversationID string) string {
	return userID + ":" + conversationID
}

// Get returns a copy of the cached injection if present and not expired.
func (c *Cache) Get(key string) (memory.Injection, bool) {
	v, ok := c.items.Get(key)
	if !ok {
		return memory.Injection{}, false
	}
	entry, ok := v.(CachedInjection)
	if !ok || entry.Expired(c.now()) {
		return memory.Injection{}, false
	}
	return entry.Injection.Clone(), true
}

// Set stores a copy of inj stamped with the current time and the default TTL.
// Concurrent writers to one key: last write wins.
func (c *Cache) Set(key string, inj memory.Injection) {
	c.items.Set(key, CachedInjection{
		Injection: inj.Clone(),
		Timestamp: c.now(),
		TTL:       c.ttl,
	}, c.ttl)
}

// Delete drops one entry.
func (c *Cache) Delete(key string) {
	c.items.Delete(key)
}

// DeletePrefix drops every entry whose key starts with prefix.
func (c *Cache) DeletePrefix(prefix string) int {
	var n int
	for key := range c.items.Items() {
		if strings.HasPrefix(key, prefix) {
			c.items.Delete(key)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (c *Cache) Len() int {
	return c.items.ItemCount()
}
