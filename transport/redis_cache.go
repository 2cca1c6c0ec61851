package transport

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "taxjar:cache:"

// RedisCache is a Cache shared between processes through Redis. Entries are
// stored as JSON and expire with the Redis TTL.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
	logger Logger
}

// NewRedisCache wraps client. An empty prefix defaults to "taxjar:cache:".
func NewRedisCache(client redis.UniversalClient, prefix string, logger Logger) *RedisCache {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	return &RedisCache{
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

// Get returns the entry stored under key. Redis errors are logged and
// reported as a miss.
func (c *RedisCache) Get(ctx context.Context, key string) (*CacheEntry, bool) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("Cache get error", "key", key, "error", err)
		return nil, false
	}

	entry, err := decodeEntry(data)
	if err != nil {
		c.logger.Warn("Discarding undecodable cache entry", "key", key, "error", err)
		return nil, false
	}
	return entry, true
}

// Set stores entry under key for ttl.
func (c *RedisCache) Set(ctx context.Context, key string, entry *CacheEntry, ttl time.Duration) {
	entry.ExpiresAt = time.Now().Add(ttl)
	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.Warn("Cache encode error", "key", key, "error", err)
		return
	}

	if err := c.client.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		c.logger.Warn("Cache set error", "key", key, "error", err)
		return
	}
	c.logger.Debug("Response cached", "key", key, "ttl", ttl.String())
}

// Delete removes key.
func (c *RedisCache) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		c.logger.Warn("Cache delete error", "key", key, "error", err)
	}
}

// Clear removes every key under the cache prefix.
func (c *RedisCache) Clear(ctx context.Context) {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+"*", 100).Result()
		if err != nil {
			c.logger.Warn("Cache scan error", "prefix", c.prefix, "error", err)
			return
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.logger.Warn("Cache clear error", "prefix", c.prefix, "error", err)
				return
			}
		}
		if next == 0 {
			return
		}
		cursor = next
	}
}

func decodeEntry(data []byte) (*CacheEntry, error) {
	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	if entry.StatusCode == 0 {
		return nil, errors.New("cache entry has no status code")
	}
	return &entry, nil
}
