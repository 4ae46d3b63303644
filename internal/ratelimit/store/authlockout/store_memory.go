// Package authlockout stores failed-login counters. Stores are pure I/O; lock
// thresholds live in the lockout service.
package authlockout

import (
	"context"
	"sync"
	"time"

	"bellgas/internal/ratelimit/models"
	"bellgas/pkg/requestcontext"
)

// retention bounds how long an idle, unlocked record is kept.
const retention = 24 * time.Hour

// InMemoryAuthLockoutStore keeps lockout records in memory.
type InMemoryAuthLockoutStore struct {
	mu      sync.Mutex
	records map[string]*models.AuthLockout
}

func New() *InMemoryAuthLockoutStore {
	return &InMemoryAuthLockoutStore{records: make(map[string]*models.AuthLockout)}
}

// Get returns nil without error when identifier has no record.
func (s *InMemoryAuthLockoutStore) Get(_ context.Context, identifier string) (*models.AuthLockout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.records[identifier]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, nil
}

// RecordFailure counts a failure at the request time. A count whose last
// failure is older than window restarts at one.
func (s *InMemoryAuthLockoutStore) RecordFailure(ctx context.Context, identifier string, window time.Duration) (*models.AuthLockout, error) {
	now := requestcontext.Now(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[identifier]
	if !ok {
		r = &models.AuthLockout{Identifier: identifier}
		s.records[identifier] = r
	}
	if ok && r.WindowLapsed(now, window) {
		r.FailureCount = 0
	}
	r.FailureCount++
	r.LastFailureAt = now

	copied := *r
	return &copied, nil
}

func (s *InMemoryAuthLockoutStore) Lock(_ context.Context, identifier string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[identifier]
	if !ok {
		r = &models.AuthLockout{Identifier: identifier, LastFailureAt: until}
		s.records[identifier] = r
	}
	r.LockedUntil = &until
	return nil
}

func (s *InMemoryAuthLockoutStore) Clear(_ context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, identifier)
	return nil
}

// DeleteExpired drops unlocked records idle for longer than a day.
func (s *InMemoryAuthLockoutStore) DeleteExpired(ctx context.Context) (int, error) {
	now := requestcontext.Now(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for k, r := range s.records {
		if !r.IsLockedAt(now) && r.WindowLapsed(now, retention) {
			delete(s.records, k)
			removed++
		}
	}
	return removed, nil
}
