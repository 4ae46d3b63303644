package revocation

import (
	"context"
	"sync"
	"time"
)

// InMemoryTRL keeps revoked token ids in memory until their TTL lapses.
type InMemoryTRL struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
	clock   Clock
}

type InMemoryOption func(*InMemoryTRL)

func WithClock(clock Clock) InMemoryOption {
	return func(t *InMemoryTRL) {
		if clock != nil {
			t.clock = clock
		}
	}
}

// NewInMemoryTRL constructs an empty in-memory revocation list.
func NewInMemoryTRL(opts ...InMemoryOption) *InMemoryTRL {
	t := &InMemoryTRL{
		revoked: make(map[string]time.Time),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *InMemoryTRL) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.revoked[jti] = t.clock().Add(ttl)
	return nil
}

func (t *InMemoryTRL) IsRevoked(_ context.Context, jti string) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	expiresAt, ok := t.revoked[jti]
	if !ok {
		return false, nil
	}
	return t.clock().Before(expiresAt), nil
}
