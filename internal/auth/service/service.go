// Package service implements password login and logout on top of the
// session store and token issuer the resolver chain reads from.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"bellgas/internal/audit"
	"bellgas/internal/auth/metrics"
	"bellgas/internal/auth/models"
	ratelimitModels "bellgas/internal/ratelimit/models"
)

// UserStore finds accounts by login email.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// SessionStore is the session surface login and logout need.
type SessionStore interface {
	Get(ctx context.Context, sessionID, key string) (string, error)
	Put(ctx context.Context, sessionID string, values map[string]string) error
	Destroy(ctx context.Context, sessionID string) error
}

// TokenManager issues, verifies and revokes access tokens.
type TokenManager interface {
	Issue(ctx context.Context, user *models.User) (string, *models.TokenClaims, error)
	Verify(ctx context.Context, token string) (*models.TokenClaims, error)
	Revoke(ctx context.Context, claims *models.TokenClaims) error
}

// AuditPublisher records authentication events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Lockout throttles repeated failed logins per email and client IP.
type Lockout interface {
	Check(ctx context.Context, email, ip string) (*ratelimitModels.Result, error)
	RecordFailure(ctx context.Context, email, ip string) (*ratelimitModels.AuthLockout, error)
	Clear(ctx context.Context, email, ip string) error
}

type Service struct {
	users    UserStore
	sessions SessionStore
	tokens   TokenManager
	audit    AuditPublisher
	lockout  Lockout
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.audit = p
	}
}

func WithLockout(l Lockout) Option {
	return func(s *Service) {
		s.lockout = l
	}
}

func New(users UserStore, sessions SessionStore, tokens TokenManager, opts ...Option) (*Service, error) {
	if users == nil {
		return nil, errors.New("user store is required")
	}
	if sessions == nil {
		return nil, errors.New("session store is required")
	}
	if tokens == nil {
		return nil, errors.New("token manager is required")
	}
	s := &Service{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// LoginRequest carries submitted credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is a freshly authenticated session.
type LoginResult struct {
	SessionID   string
	AccessToken string
	ExpiresAt   time.Time
	Principal   *models.Principal
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action.String(),
			"error", err,
		)
	}
}

func (s *Service) countLogin(outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementLogin(outcome)
	}
}
