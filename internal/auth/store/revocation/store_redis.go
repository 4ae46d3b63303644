package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "bellgas:revoked:"

// RedisTRL shares revocation state between server instances. Each revoked
// jti is a key whose TTL matches the token's remaining lifetime.
type RedisTRL struct {
	client *redis.Client
}

func NewRedisTRL(client *redis.Client) *RedisTRL {
	return &RedisTRL{client: client}
}

func (t *RedisTRL) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	if err := t.client.Set(ctx, redisKeyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (t *RedisTRL) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	n, err := t.client.Exists(ctx, redisKeyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("check token revocation: %w", err)
	}
	return n > 0, nil
}
