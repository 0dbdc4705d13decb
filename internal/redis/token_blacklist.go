package redis

import (
	"context"
	"fmt"
	"time"

	"facegram/internal/auth"

	"github.com/redis/go-redis/v9"
)

// redisTokenBlacklist is the Redis implementation of auth.TokenBlacklist.
type redisTokenBlacklist struct {
	client *redis.Client
}

// NewRedisTokenBlacklist creates a new redisTokenBlacklist instance.
func NewRedisTokenBlacklist(client *redis.Client) auth.TokenBlacklist {
	return &redisTokenBlacklist{client: client}
}

const blacklistKeyPrefix = "bl:jti:"

// Add blacklists the jti, expiring the Redis key at the token's original
// expiry time. Already expired tokens are not stored.
func (r *redisTokenBlacklist) Add(ctx context.Context, jti string, originalTokenExpTime time.Time) error {
	duration := time.Until(originalTokenExpTime)

	if duration <= 0 {
		// Token is already expired; JWT validation rejects it on its own.
		return nil
	}

	key := blacklistKeyPrefix + jti
	err := r.client.Set(ctx, key, "revoked", duration).Err()
	if err != nil {
		return fmt.Errorf("failed to add JTI %s to Redis blacklist: %w", jti, err)
	}
	return nil
}

// IsBlacklisted checks whether the jti is in the blacklist.
func (r *redisTokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	key := blacklistKeyPrefix + jti
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check Redis blacklist for JTI %s: %w", jti, err)
	}
	return val == "revoked", nil
}
