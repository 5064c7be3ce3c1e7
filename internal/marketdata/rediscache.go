package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/aajay101/investment-tracker-beta-v1/internal/config"
)

// RedisCache is a PriceCache backed by Redis, shared across instances.
// Entries expire at twice the bucket width; within a bucket the behavior is
// identical to MemoryCache.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache connects to Redis and verifies the connection
func NewRedisCache(cfg config.RedisConfig, bucket time.Duration) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{rdb: rdb, ttl: 2 * bucket}, nil
}

// Get returns the cached price for a key
func (c *RedisCache) Get(ctx context.Context, key string) (decimal.Decimal, bool) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		return decimal.Zero, false
	}
	price, err := decimal.NewFromString(val)
	if err != nil {
		return decimal.Zero, false
	}
	return price, true
}

// Set stores a price under a key with expiry
func (c *RedisCache) Set(ctx context.Context, key string, price decimal.Decimal) {
	c.rdb.Set(ctx, key, price.String(), c.ttl)
}

// Ping checks if Redis is reachable
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
