// Package cache keeps alert cooldowns in Redis in front of the alert store.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"dog-scout/internal/config"
	"dog-scout/internal/selector"
)

// Redis key prefixes.
const (
	KeyPrefix      = "dogscout:cooldown"
	tokenKeyPrefix = KeyPrefix + ":token:"
	pairKeyPrefix  = KeyPrefix + ":pair:"
)

// CooldownCache stores one expiring key per alerted token and pair.
type CooldownCache struct {
	rdb *redis.Client
}

// NewCooldownCache connects to Redis and verifies the connection.
func NewCooldownCache(ctx context.Context, cfg config.Redis) (*CooldownCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &CooldownCache{rdb: rdb}, nil
}

// NewCooldownCacheWithClient wraps an existing client.
func NewCooldownCacheWithClient(rdb *redis.Client) *CooldownCache {
	return &CooldownCache{rdb: rdb}
}

// Close closes the Redis client.
func (c *CooldownCache) Close() error {
	return c.rdb.Close()
}

// Mark records an alert for tokenAddress and pairAddress for the cooldown.
func (c *CooldownCache) Mark(ctx context.Context, tokenAddress, pairAddress string, cooldown time.Duration) error {
	if cooldown <= 0 {
		return nil
	}
	pipe := c.rdb.TxPipeline()
	for _, key := range keys(tokenAddress, pairAddress) {
		pipe.Set(ctx, key, 1, cooldown)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mark cooldown: %w", err)
	}
	return nil
}

// Has reports whether either address still has a cooldown key.
func (c *CooldownCache) Has(ctx context.Context, tokenAddress, pairAddress string) (bool, error) {
	ks := keys(tokenAddress, pairAddress)
	if len(ks) == 0 {
		return false, nil
	}
	n, err := c.rdb.Exists(ctx, ks...).Result()
	if err != nil {
		return false, fmt.Errorf("check cooldown: %w", err)
	}
	return n > 0, nil
}

func keys(tokenAddress, pairAddress string) []string {
	var ks []string
	if tokenAddress != "" {
		ks = append(ks, tokenKeyPrefix+tokenAddress)
	}
	if pairAddress != "" {
		ks = append(ks, pairKeyPrefix+pairAddress)
	}
	return ks
}

// Dedup answers cooldown lookups from Redis first and falls back to the store.
// A cache miss is not trusted on its own: the store stays authoritative.
type Dedup struct {
	cache    *CooldownCache
	fallback selector.DedupStore
	log      logrus.FieldLogger
}

// NewDedup decorates fallback with cache. A nil log uses the standard logger.
func NewDedup(cache *CooldownCache, fallback selector.DedupStore, log logrus.FieldLogger) *Dedup {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Dedup{cache: cache, fallback: fallback, log: log.WithField("component", "cooldown_cache")}
}

// Compile-time interface check.
var _ selector.DedupStore = (*Dedup)(nil)

// HasRecentAlert implements selector.DedupStore.
func (d *Dedup) HasRecentAlert(ctx context.Context, tokenAddress, pairAddress string, cooldown time.Duration) (bool, error) {
	hit, err := d.cache.Has(ctx, tokenAddress, pairAddress)
	switch {
	case err != nil && !errors.Is(err, context.Canceled):
		d.log.WithError(err).Warn("cooldown cache lookup failed, using store")
	case err != nil:
		return false, err
	case hit:
		return true, nil
	}
	return d.fallback.HasRecentAlert(ctx, tokenAddress, pairAddress, cooldown)
}

// MarkAlerted records a fresh alert in the cache. Failures are logged only.
func (d *Dedup) MarkAlerted(ctx context.Context, tokenAddress, pairAddress string, cooldown time.Duration) {
	if err := d.cache.Mark(ctx, tokenAddress, pairAddress, cooldown); err != nil {
		d.log.WithError(err).WithField("token", tokenAddress).Warn("cooldown cache mark failed")
	}
}
