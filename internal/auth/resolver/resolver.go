// Package resolver turns the identity evidence on a request into at most one
// Principal by walking an ordered chain of sources. The first source that
// yields an active user wins. Every failure along the way is swallowed and
// only the exhausted chain is reported, as ErrUnauthenticated.
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bellgas/internal/auth/metrics"
	"bellgas/internal/auth/models"
	dErrors "bellgas/pkg/domain-errors"
	"bellgas/pkg/platform/sentinel"
	"bellgas/pkg/requestcontext"
)

var (
	// ErrUnauthenticated is returned when no source produced a principal.
	ErrUnauthenticated = dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	// ErrAccessDenied is returned when a principal's role is not permitted.
	ErrAccessDenied = dErrors.New(dErrors.CodeForbidden, "insufficient role")
	// ErrUnknownSession is returned by Promote when the cookie names a
	// session this server never issued or that has expired.
	ErrUnknownSession = errors.New("session not held by server")
)

// Resolver evaluates identity sources sequentially.
type Resolver struct {
	sessions SessionStore
	sources  []Source
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// WithSources replaces the default chain. Order is evaluation order.
func WithSources(sources ...Source) Option {
	return func(r *Resolver) {
		r.sources = sources
	}
}

// New builds a resolver over the default chain.
func New(sessions SessionStore, tokens TokenVerifier, users UserRepository, opts ...Option) (*Resolver, error) {
	if sessions == nil {
		return nil, errors.New("session store is required")
	}
	if tokens == nil {
		return nil, errors.New("token verifier is required")
	}
	if users == nil {
		return nil, errors.New("user repository is required")
	}
	r := &Resolver{
		sessions: sessions,
		sources:  DefaultSources(sessions, tokens, users),
		logger:   slog.Default(),
		tracer:   otel.Tracer("bellgas/auth"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve returns the principal for rc, or ErrUnauthenticated.
func (r *Resolver) Resolve(ctx context.Context, rc RequestContext) (*models.Principal, error) {
	start := time.Now()
	ctx, span := r.tracer.Start(ctx, "auth.Resolve")
	defer span.End()
	if r.metrics != nil {
		defer r.metrics.ObserveResolve(start)
	}

	for _, src := range r.sources {
		principal, err := src.Lookup(ctx, rc)
		if err == nil && principal != nil {
			span.SetAttributes(
				attribute.String("auth.source", principal.Source.String()),
				attribute.String("auth.role", principal.Role.String()),
			)
			if r.metrics != nil {
				r.metrics.IncrementResolved(principal.Source.String())
			}
			return principal, nil
		}
		r.logMiss(ctx, src.Name(), err)
	}

	if r.metrics != nil {
		r.metrics.IncrementUnauthenticated()
	}
	span.SetAttributes(attribute.Bool("auth.unauthenticated", true))
	return nil, ErrUnauthenticated
}

func (r *Resolver) logMiss(ctx context.Context, source models.Source, err error) {
	if r.metrics != nil {
		r.metrics.IncrementSourceMiss(source.String())
	}
	if err == nil || errors.Is(err, errNoEvidence) {
		return
	}
	r.logger.DebugContext(ctx, "identity source rejected evidence",
		"source", source.String(),
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
}

// Promote writes a fallback-resolved principal into the primary session so
// later requests resolve at the first step. Principals that already came
// from the primary session, and requests without a session, are left alone.
// Only an existing server-side session is written; a client-chosen id yields
// ErrUnknownSession and nothing is stored.
func (r *Resolver) Promote(ctx context.Context, sessionID string, principal *models.Principal) error {
	if principal == nil || sessionID == "" || principal.Source == models.SourcePrimarySession {
		return nil
	}
	blob, err := json.Marshal(models.NewStoredUserData(principal))
	if err != nil {
		return fmt.Errorf("encode stored user data: %w", err)
	}
	err = r.sessions.Update(ctx, sessionID, map[string]string{
		models.SessionKeyUserID:        principal.ID.String(),
		models.SessionKeyAuthenticated: "true",
		models.SessionKeyUserData:      string(blob),
	})
	if errors.Is(err, sentinel.ErrNotFound) {
		return ErrUnknownSession
	}
	if err != nil {
		return fmt.Errorf("promote principal: %w", err)
	}
	if r.metrics != nil {
		r.metrics.IncrementPromotion()
	}
	r.logger.InfoContext(ctx, "promoted fallback identity into session",
		"user_id", principal.ID.String(),
		"source", principal.Source.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}
