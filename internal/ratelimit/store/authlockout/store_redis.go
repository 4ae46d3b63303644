package authlockout

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"bellgas/internal/ratelimit/models"
	"bellgas/pkg/requestcontext"
)

const (
	keyPrefix       = "lockout:"
	fieldCount      = "failure_count"
	fieldLastFail   = "last_failure_at"
	fieldLockedTill = "locked_until"
)

// RedisStore keeps each record in a hash whose TTL is the later of the
// failure window and the lock. An idle record expires, which restarts the
// count.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) key(identifier string) string {
	return keyPrefix + identifier
}

func (s *RedisStore) Get(ctx context.Context, identifier string) (*models.AuthLockout, error) {
	fields, err := s.client.HGetAll(ctx, s.key(identifier)).Result()
	if err != nil {
		return nil, fmt.Errorf("get auth lockout: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return decode(identifier, fields)
}

func (s *RedisStore) RecordFailure(ctx context.Context, identifier string, window time.Duration) (*models.AuthLockout, error) {
	now := requestcontext.Now(ctx)
	key := s.key(identifier)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, key, fieldCount, 1)
		pipe.HSet(ctx, key, fieldLastFail, now.UnixNano())
		pipe.ExpireNX(ctx, key, window)
		pipe.ExpireGT(ctx, key, window)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record auth failure: %w", err)
	}
	record, err := s.Get(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("record auth failure: record vanished for %s", identifier)
	}
	return record, nil
}

func (s *RedisStore) Lock(ctx context.Context, identifier string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	key := s.key(identifier)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fieldLockedTill, until.UnixNano())
		pipe.ExpireNX(ctx, key, ttl)
		pipe.ExpireGT(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("lock auth identifier: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, identifier string) error {
	if err := s.client.Del(ctx, s.key(identifier)).Err(); err != nil {
		return fmt.Errorf("clear auth lockout: %w", err)
	}
	return nil
}

func decode(identifier string, fields map[string]string) (*models.AuthLockout, error) {
	record := &models.AuthLockout{Identifier: identifier}
	if raw, ok := fields[fieldCount]; ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("decode failure count: %w", err)
		}
		record.FailureCount = n
	}
	if raw, ok := fields[fieldLastFail]; ok {
		ns, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode last failure: %w", err)
		}
		record.LastFailureAt = time.Unix(0, ns)
	}
	if raw, ok := fields[fieldLockedTill]; ok {
		ns, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode lock expiry: %w", err)
		}
		until := time.Unix(0, ns)
		record.LockedUntil = &until
	}
	return record, nil
}
