package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AnkitChadoker/micro-chat/pkg/logger"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultLocalSize = 1000
	defaultLocalTTL  = 5 * time.Minute
	defaultSharedTTL = 24 * time.Hour
)

// Config two tier cache sizing. Zero values fall back to the defaults
// (1000 entries / 5m local, 24h shared).
type Config struct {
	LocalSize int
	LocalTTL  time.Duration
	SharedTTL time.Duration
}

// sharedStore is the subset of *redis.Client the shared tier uses
type sharedStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SetXX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// TwoTier keeps a bounded in-process LRU in front of a shared Redis tier.
// Reads check local first, then shared, backfilling local on a shared hit.
// It never reaches for the source of truth itself, that is the caller's job.
// The tiers are not linked transactionally; staleness between them is
// tolerated.
type TwoTier[T any] struct {
	local     *lru.LRU[string, T]
	shared    sharedStore
	sharedTTL time.Duration
}

// New create a TwoTier cache on a redis client
func New[T any](client *redis.Client, cfg Config) *TwoTier[T] {
	return newWithStore[T](client, cfg)
}

func newWithStore[T any](store sharedStore, cfg Config) *TwoTier[T] {
	if cfg.LocalSize <= 0 {
		cfg.LocalSize = defaultLocalSize
	}
	if cfg.LocalTTL <= 0 {
		cfg.LocalTTL = defaultLocalTTL
	}
	if cfg.SharedTTL <= 0 {
		cfg.SharedTTL = defaultSharedTTL
	}
	return &TwoTier[T]{
		local:     lru.NewLRU[string, T](cfg.LocalSize, nil, cfg.LocalTTL),
		shared:    store,
		sharedTTL: cfg.SharedTTL,
	}
}

// Get read through local then shared. A shared hit is copied into local.
// Shared tier errors degrade to a miss.
func (c *TwoTier[T]) Get(ctx context.Context, key string) (T, bool) {
	if v, ok := c.local.Get(key); ok {
		return v, true
	}

	var zero T
	raw, err := c.shared.Get(ctx, key).Result()
	if err == redis.Nil {
		return zero, false
	} else if err != nil {
		logger.Log.Warn(fmt.Sprintf("shared cache get[%s]: %v", key, err))
		return zero, false
	}

	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		logger.Log.Warn(fmt.Sprintf("shared cache decode[%s]: %v", key, err))
		return zero, false
	}

	c.local.Add(key, v)
	return v, true
}

// GetMany resolve several keys in one shared round trip. Returns the hits
// keyed by cache key and the keys that missed both tiers, input order kept.
func (c *TwoTier[T]) GetMany(ctx context.Context, keys []string) (map[string]T, []string) {
	found := make(map[string]T, len(keys))
	var missing []string

	for _, key := range keys {
		if v, ok := c.local.Get(key); ok {
			found[key] = v
		} else {
			missing = append(missing, key)
		}
	}

	if len(missing) == 0 {
		return found, nil
	}

	values, err := c.shared.MGet(ctx, missing...).Result()
	if err != nil {
		logger.Log.Warn(fmt.Sprintf("shared cache mget: %v", err))
		return found, missing
	}

	var stillMissing []string
	for i, raw := range values {
		key := missing[i]
		s, ok := raw.(string)
		if !ok {
			stillMissing = append(stillMissing, key)
			continue
		}
		var v T
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			logger.Log.Warn(fmt.Sprintf("shared cache decode[%s]: %v", key, err))
			stillMissing = append(stillMissing, key)
			continue
		}
		found[key] = v
		c.local.Add(key, v)
	}

	return found, stillMissing
}

// Set write both tiers. ttl bounds the shared entry, zero means the
// configured default; the local tier keeps its own cache wide TTL.
func (c *TwoTier[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	c.local.Add(key, value)

	if ttl <= 0 {
		ttl = c.sharedTTL
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	return c.shared.Set(ctx, key, data, ttl).Err()
}

// Refresh overwrite an entry only in the tiers that already hold it. Never
// creates a new entry, so event traffic cannot populate the cache.
func (c *TwoTier[T]) Refresh(ctx context.Context, key string, value T) error {
	if c.local.Contains(key) {
		c.local.Add(key, value)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	// SET XX only touches keys that exist
	return c.shared.SetXX(ctx, key, data, c.sharedTTL).Err()
}

// Delete evict from both tiers
func (c *TwoTier[T]) Delete(ctx context.Context, key string) error {
	c.local.Remove(key)
	return c.shared.Del(ctx, key).Err()
}
