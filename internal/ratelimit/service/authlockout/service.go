// Package authlockout refuses logins for an email and client IP pair after
// repeated failures.
package authlockout

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"bellgas/internal/ratelimit/metrics"
	"bellgas/internal/ratelimit/models"
	dErrors "bellgas/pkg/domain-errors"
	"bellgas/pkg/requestcontext"
)

var ErrLocked = dErrors.New(dErrors.CodeRateLimited, "too many failed login attempts")

// Store is the persistence surface of a lockout backend.
type Store interface {
	Get(ctx context.Context, identifier string) (*models.AuthLockout, error)
	RecordFailure(ctx context.Context, identifier string, window time.Duration) (*models.AuthLockout, error)
	Lock(ctx context.Context, identifier string, until time.Time) error
	Clear(ctx context.Context, identifier string) error
}

// Config sets the lockout thresholds.
type Config struct {
	AttemptsPerWindow int
	WindowDuration    time.Duration
	LockDuration      time.Duration
}

// DefaultConfig allows five failures in fifteen minutes, then locks for
// fifteen minutes.
func DefaultConfig() Config {
	return Config{
		AttemptsPerWindow: 5,
		WindowDuration:    15 * time.Minute,
		LockDuration:      15 * time.Minute,
	}
}

type Service struct {
	store   Store
	config  Config
	metrics *metrics.Metrics
	logger  *slog.Logger
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

// WithConfig overrides the thresholds. Non-positive fields keep defaults.
func WithConfig(cfg Config) Option {
	return func(s *Service) {
		if cfg.AttemptsPerWindow > 0 {
			s.config.AttemptsPerWindow = cfg.AttemptsPerWindow
		}
		if cfg.WindowDuration > 0 {
			s.config.WindowDuration = cfg.WindowDuration
		}
		if cfg.LockDuration > 0 {
			s.config.LockDuration = cfg.LockDuration
		}
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth lockout store is required")
	}
	svc := &Service{
		store:  store,
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Check reports whether a login attempt may proceed.
func (s *Service) Check(ctx context.Context, email, ip string) (*models.Result, error) {
	key := models.NewAuthLockoutKey(email, ip).String()
	record, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to get auth lockout record")
	}

	now := requestcontext.Now(ctx)
	if record == nil || (!record.IsLockedAt(now) && record.WindowLapsed(now, s.config.WindowDuration)) {
		return &models.Result{Allowed: true, Remaining: s.config.AttemptsPerWindow}, nil
	}
	if record.IsLockedAt(now) {
		if s.metrics != nil {
			s.metrics.IncrementBlockedAttempts()
		}
		return &models.Result{
			Allowed:    false,
			RetryAfter: record.LockedUntil.Sub(now),
		}, nil
	}
	return &models.Result{
		Allowed:   true,
		Remaining: record.RemainingAttempts(s.config.AttemptsPerWindow),
	}, nil
}

// RecordFailure counts a failed attempt and locks the pair once the window
// limit is reached.
func (s *Service) RecordFailure(ctx context.Context, email, ip string) (*models.AuthLockout, error) {
	key := models.NewAuthLockoutKey(email, ip).String()
	current, err := s.store.RecordFailure(ctx, key, s.config.WindowDuration)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record auth failure")
	}
	if s.metrics != nil {
		s.metrics.IncrementAuthFailures()
	}

	now := requestcontext.Now(ctx)
	if current.FailureCount < s.config.AttemptsPerWindow || current.IsLockedAt(now) {
		return current, nil
	}

	until := now.Add(s.config.LockDuration)
	if err := s.store.Lock(ctx, key, until); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to apply auth lockout")
	}
	current.LockedUntil = &until
	if s.metrics != nil {
		s.metrics.IncrementAuthLockouts()
	}
	s.logger.WarnContext(ctx, "auth lockout triggered",
		"failures", current.FailureCount,
		"locked_until", until,
		"request_id", requestcontext.RequestID(ctx),
	)
	return current, nil
}

// Clear forgets failures after a successful login.
func (s *Service) Clear(ctx context.Context, email, ip string) error {
	key := models.NewAuthLockoutKey(email, ip).String()
	if err := s.store.Clear(ctx, key); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear auth failures")
	}
	return nil
}
