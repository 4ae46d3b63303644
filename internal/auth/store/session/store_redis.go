package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"bellgas/pkg/platform/sentinel"
)

const sessionKeyPrefix = "session:"

// updateExisting writes ARGV[2:] as field/value pairs and refreshes the TTL
// (ARGV[1], seconds) only when the hash already exists.
var updateExisting = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
redis.call("HSET", KEYS[1], unpack(ARGV, 2))
redis.call("EXPIRE", KEYS[1], ARGV[1])
return 1
`)

// RedisStore keeps each session as a Redis hash. Writes refresh the key's
// TTL so active sessions slide forward.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis constructs a Redis-backed session store.
func NewRedis(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

func (s *RedisStore) Get(ctx context.Context, sessionID, key string) (string, error) {
	value, err := s.client.HGet(ctx, sessionKey(sessionID), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("session key %s not found: %w", key, sentinel.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get session key: %w", err)
	}
	return value, nil
}

func (s *RedisStore) Put(ctx context.Context, sessionID string, values map[string]string) error {
	if sessionID == "" {
		return fmt.Errorf("session id is required: %w", sentinel.ErrInvalidState)
	}
	if len(values) == 0 {
		return nil
	}
	key := sessionKey(sessionID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, values)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("put session values: %w", err)
	}
	return nil
}

// Update merges values into an existing session. It returns
// sentinel.ErrNotFound when the key is absent, so callers cannot mint a
// session under an id the server never issued.
func (s *RedisStore) Update(ctx context.Context, sessionID string, values map[string]string) error {
	if sessionID == "" {
		return fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
	}
	if len(values) == 0 {
		return nil
	}
	args := make([]any, 0, 1+2*len(values))
	args = append(args, int64(s.ttl/time.Second))
	for k, v := range values {
		args = append(args, k, v)
	}
	updated, err := updateExisting.Run(ctx, s.client, []string{sessionKey(sessionID)}, args...).Int()
	if err != nil {
		return fmt.Errorf("update session values: %w", err)
	}
	if updated == 0 {
		return fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
	}
	return nil
}

func (s *RedisStore) Forget(ctx context.Context, sessionID string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.HDel(ctx, sessionKey(sessionID), keys...).Err(); err != nil {
		return fmt.Errorf("forget session keys: %w", err)
	}
	return nil
}

// Destroy removes the whole session.
func (s *RedisStore) Destroy(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}
