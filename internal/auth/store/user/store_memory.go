package user

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"bellgas/internal/auth/models"
	id "bellgas/pkg/domain"
	"bellgas/pkg/platform/sentinel"
)

// Error Contract:
// FindByID and FindByEmail return sentinel.ErrNotFound when no user matches.
// Save returns sentinel.ErrInvalidState when another user already owns the email.

// InMemoryUserStore keeps users in memory for tests and development.
type InMemoryUserStore struct {
	mu      sync.RWMutex
	users   map[id.UserID]*models.User
	byEmail map[string]id.UserID
}

// New constructs an empty in-memory user store.
func New() *InMemoryUserStore {
	return &InMemoryUserStore{
		users:   make(map[id.UserID]*models.User),
		byEmail: make(map[string]id.UserID),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *InMemoryUserStore) Save(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := normalizeEmail(user.Email)
	if owner, ok := s.byEmail[key]; ok && owner != user.ID {
		return fmt.Errorf("email already registered: %w", sentinel.ErrInvalidState)
	}
	if prev, ok := s.users[user.ID]; ok {
		delete(s.byEmail, normalizeEmail(prev.Email))
	}
	stored := *user
	s.users[user.ID] = &stored
	s.byEmail[key] = user.ID
	return nil
}

func (s *InMemoryUserStore) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[userID]; ok {
		found := *u
		return &found, nil
	}
	return nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if uid, ok := s.byEmail[normalizeEmail(email)]; ok {
		found := *s.users[uid]
		return &found, nil
	}
	return nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
}

// ListAll returns every user ordered by email.
func (s *InMemoryUserStore) ListAll(_ context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		copied := *u
		users = append(users, &copied)
	}
	sort.Slice(users, func(i, j int) bool {
		return normalizeEmail(users[i].Email) < normalizeEmail(users[j].Email)
	})
	return users, nil
}
