package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bellgas/pkg/platform/sentinel"
)

// Clock returns the current time; injected for tests.
type Clock func() time.Time

type entry struct {
	values    map[string]string
	expiresAt time.Time
}

// InMemoryStore keeps sessions in process memory for tests and single-node
// development. Every write slides the session's expiry forward by ttl.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	ttl      time.Duration
	clock    Clock
}

type InMemoryOption func(*InMemoryStore)

func WithClock(clock Clock) InMemoryOption {
	return func(s *InMemoryStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewInMemory constructs an empty store whose sessions live for ttl after
// their last write.
func NewInMemory(ttl time.Duration, opts ...InMemoryOption) *InMemoryStore {
	s := &InMemoryStore{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) Get(_ context.Context, sessionID, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[sessionID]
	if !ok || s.expired(e) {
		return "", fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
	}
	value, ok := e.values[key]
	if !ok {
		return "", fmt.Errorf("session key %s not found: %w", key, sentinel.ErrNotFound)
	}
	return value, nil
}

func (s *InMemoryStore) Put(_ context.Context, sessionID string, values map[string]string) error {
	if sessionID == "" {
		return fmt.Errorf("session id is required: %w", sentinel.ErrInvalidState)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[sessionID]
	if !ok || s.expired(e) {
		e = &entry{values: make(map[string]string, len(values))}
		s.sessions[sessionID] = e
	}
	for k, v := range values {
		e.values[k] = v
	}
	e.expiresAt = s.clock().Add(s.ttl)
	return nil
}

// Update merges values into a live session and slides its expiry. Unlike
// Put it never creates one: an unknown or expired id returns
// sentinel.ErrNotFound.
func (s *InMemoryStore) Update(_ context.Context, sessionID string, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[sessionID]
	if !ok || s.expired(e) {
		return fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
	}
	for k, v := range values {
		e.values[k] = v
	}
	e.expiresAt = s.clock().Add(s.ttl)
	return nil
}

func (s *InMemoryStore) Forget(_ context.Context, sessionID string, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	for _, k := range keys {
		delete(e.values, k)
	}
	return nil
}

// Destroy removes the whole session.
func (s *InMemoryStore) Destroy(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// DeleteExpired drops sessions past their expiry and reports how many were
// removed.
func (s *InMemoryStore) DeleteExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for sid, e := range s.sessions {
		if s.expired(e) {
			delete(s.sessions, sid)
			removed++
		}
	}
	return removed, nil
}

func (s *InMemoryStore) expired(e *entry) bool {
	return !e.expiresAt.IsZero() && !s.clock().Before(e.expiresAt)
}
