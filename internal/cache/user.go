package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/exerlog/exerlog/internal/model"
)

// Cache key prefixes and TTLs.
const (
	userKeyPrefix     = "user:"
	negCacheKeySuffix = ":neg"

	// DefaultUserTTL is the TTL for cached user records.
	DefaultUserTTL = 10 * time.Minute

	// NegativeCacheTTL is the TTL for unknown-id entries.
	NegativeCacheTTL = 1 * time.Minute
)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

// userKey returns the key holding the JSON user record for id.
func userKey(id string) string {
	return userKeyPrefix + id
}

// GetUser retrieves a full user record (header and log) from cache.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetUser(ctx context.Context, id string) (*model.User, error) {
	data, err := c.client.Get(ctx, userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		// Corrupt entry: drop it and treat as a miss.
		c.client.Del(ctx, userKey(id))
		return nil, ErrCacheMiss
	}

	return &user, nil
}

// SetUser stores a full user record and clears any negative entry.
func (c *Cache) SetUser(ctx context.Context, user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	key := userKey(user.ID)

	pipe := c.client.Pipeline()
	pipe.Set(ctx, key, data, c.ttl)
	pipe.Del(ctx, key+negCacheKeySuffix)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache user: %w", err)
	}

	return nil
}

// DeleteUser removes a user record from cache.
func (c *Cache) DeleteUser(ctx context.Context, id string) error {
	key := userKey(id)

	pipe := c.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.Del(ctx, key+negCacheKeySuffix)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete user from cache: %w", err)
	}

	return nil
}

// IsNegativelyCached checks if an id is known not to exist.
func (c *Cache) IsNegativelyCached(ctx context.Context, id string) (bool, error) {
	exists, err := c.client.Exists(ctx, userKey(id)+negCacheKeySuffix).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check negative cache: %w", err)
	}

	return exists > 0, nil
}

// SetNegativeCache marks an id as not found.
func (c *Cache) SetNegativeCache(ctx context.Context, id string) error {
	err := c.client.SetEx(ctx, userKey(id)+negCacheKeySuffix, "", NegativeCacheTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to set negative cache: %w", err)
	}

	return nil
}
