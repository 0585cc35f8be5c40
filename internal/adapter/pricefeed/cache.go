package pricefeed

import (
	"context"
	"sync"
	"time"

	"github.com/mfbatista/carteira-backend/internal/domain"
)

// CachedSource decorates a domain.PriceSource with a bounded-freshness
// in-memory cache. Each computation run is independent, so the cache only
// exists to avoid hammering the upstream feed when requests repeat within a
// short window; it is an optimization, never a correctness requirement.
//
// Unavailable quotes are not cached: the next request retries the upstream.
type CachedSource struct {
	source domain.PriceSource
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	quote   domain.Quote
	fetched time.Time
}

// NewCachedSource creates a TTL cache around source. A non-positive ttl
// disables caching entirely.
func NewCachedSource(source domain.PriceSource, ttl time.Duration) *CachedSource {
	return &CachedSource{
		source:  source,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// Quote returns a cached price when it is still fresh, otherwise delegates
// to the underlying source and stores the result.
func (c *CachedSource) Quote(ctx context.Context, assetID string) (*domain.Quote, error) {
	key := domain.CanonicalAssetID(assetID)

	if c.ttl > 0 {
		c.mu.Lock()
		entry, ok := c.entries[key]
		c.mu.Unlock()
		if ok && c.now().Sub(entry.fetched) < c.ttl {
			quote := entry.quote
			return &quote, nil
		}
	}

	quote, err := c.source.Quote(ctx, assetID)
	if err != nil {
		return nil, err
	}

	if c.ttl > 0 {
		c.mu.Lock()
		c.entries[key] = cacheEntry{quote: *quote, fetched: c.now()}
		c.mu.Unlock()
	}
	return quote, nil
}
