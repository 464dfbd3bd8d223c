package dexscreener

import (
	"sync"
	"time"

	"dexscreener-alert-bot/internal/types"
)

// quoteCache holds recent quotes keyed by lower-cased token address. Expired
// entries are replaced lazily on the next lookup; there is no eviction loop.
type quoteCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	quote     *types.TokenQuote
	expiresAt time.Time
}

func newQuoteCache(ttl time.Duration) *quoteCache {
	return &quoteCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func (c *quoteCache) get(key string) (*types.TokenQuote, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.quote, true
}

func (c *quoteCache) set(key string, quote *types.TokenQuote) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		quote:     quote,
		expiresAt: c.now().Add(c.ttl),
	}
}
