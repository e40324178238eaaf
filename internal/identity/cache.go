package identity

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const roleKeyPrefix = "identity:role:"

// Cache keeps resolved staff roles in Redis so the gate does not hit the users table per request.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

func (c *Cache) Get(ctx context.Context, userID string) (Role, bool, error) {
	v, err := c.rdb.Get(ctx, roleKeyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	role, err := ParseRole(v)
	if err != nil {
		return "", false, nil
	}
	return role, true, nil
}

func (c *Cache) Set(ctx context.Context, userID string, role Role) error {
	return c.rdb.Set(ctx, roleKeyPrefix+userID, string(role), c.ttl).Err()
}

func (c *Cache) Invalidate(ctx context.Context, userID string) error {
	return c.rdb.Del(ctx, roleKeyPrefix+userID).Err()
}
