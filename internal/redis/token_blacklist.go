package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/PejmanG/chat-app/internal/auth"
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

// Add blacklists the jti with a TTL equal to the token's remaining lifetime.
func (r *redisTokenBlacklist) Add(ctx context.Context, jti string, originalTokenExpTime time.Time) error {
	duration := time.Until(originalTokenExpTime)
	if duration <= 0 {
		// Already expired; JWT validation rejects it on its own.
		return nil
	}

	key := blacklistKeyPrefix + jti
	if err := r.client.Set(ctx, key, "revoked", duration).Err(); err != nil {
		return fmt.Errorf("failed to blacklist jti %s: %w", jti, err)
	}
	return nil
}

// IsBlacklisted checks whether the jti has been revoked.
func (r *redisTokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	key := blacklistKeyPrefix + jti
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("blacklist lookup failed for jti %s: %w", jti, err)
	}
	return val == "revoked", nil
}
