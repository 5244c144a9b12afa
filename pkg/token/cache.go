package token

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// DefaultCacheTTL bounds how long a rotated/continued AccessToken is kept
// in the cache after it was last stored, independent of the token's
// own ExpiresAt — it just avoids holding stale entries forever when a
// manage URI is abandoned.
const DefaultCacheTTL = 10 * time.Minute

// Cache caches AccessTokens keyed by their manage URI, per spec.md's note
// that token state (not just signing keys) benefits from avoiding a GET
// round trip per use. Grounded on the teacher's pkg/trust.TrustCache.
type Cache struct {
	cache *ttlcache.Cache[string, *AccessToken]
}

// NewCache creates and starts a new AccessToken cache with the given TTL
// (DefaultCacheTTL if ttl <= 0).
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c := ttlcache.New(ttlcache.WithTTL[string, *AccessToken](ttl))
	go c.Start()
	return &Cache{cache: c}
}

// Get returns the cached token for manageURI, or nil if absent/expired.
func (c *Cache) Get(manageURI string) *AccessToken {
	if manageURI == "" {
		return nil
	}
	item := c.cache.Get(manageURI)
	if item == nil {
		return nil
	}
	return item.Value()
}

// Set stores tok under its own Manage URI. Tokens with no manage URI
// (single-use, non-rotatable) are intentionally not cached.
func (c *Cache) Set(tok *AccessToken) {
	if tok == nil || tok.Manage == "" {
		return
	}
	c.cache.Set(tok.Manage, tok, ttlcache.DefaultTTL)
}

// Invalidate removes manageURI's cached token, e.g. after revocation.
func (c *Cache) Invalidate(manageURI string) {
	c.cache.Delete(manageURI)
}

// Len returns the number of cached tokens.
func (c *Cache) Len() int { return c.cache.Len() }

// Stop stops the cache's automatic expiration goroutine.
func (c *Cache) Stop() { c.cache.Stop() }
