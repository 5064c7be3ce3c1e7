package marketdata

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

// PriceCache stores quantized current-price lookups. Keys carry the symbol
// and the time bucket, so entries never need invalidation: a stale entry is
// simply never asked for again once the bucket advances. Implementations must
// be safe for concurrent use.
type PriceCache interface {
	Get(ctx context.Context, key string) (decimal.Decimal, bool)
	Set(ctx context.Context, key string, price decimal.Decimal)
}

// MemoryCache is the in-process PriceCache used when Redis is not
// configured. It grows without bound over the process lifetime; bucketed keys
// keep the growth rate to one entry per symbol per bucket.
type MemoryCache struct {
	mu     sync.RWMutex
	prices map[string]decimal.Decimal
}

// NewMemoryCache creates an empty in-process price cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{prices: make(map[string]decimal.Decimal)}
}

// Get returns the cached price for a key
func (c *MemoryCache) Get(_ context.Context, key string) (decimal.Decimal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	price, ok := c.prices[key]
	return price, ok
}

// Set stores a price under a key
func (c *MemoryCache) Set(_ context.Context, key string, price decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prices[key] = price
}
