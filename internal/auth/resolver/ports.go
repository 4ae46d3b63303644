package resolver

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks SessionStore,TokenVerifier,UserRepository

import (
	"context"

	"bellgas/internal/auth/models"
	id "bellgas/pkg/domain"
)

// SessionStore reads and writes keys of a server-side session.
// Get returns sentinel.ErrNotFound when the session or key is absent. Update
// writes only into a session the server already holds and returns
// sentinel.ErrNotFound otherwise.
type SessionStore interface {
	Get(ctx context.Context, sessionID, key string) (string, error)
	Update(ctx context.Context, sessionID string, values map[string]string) error
	Forget(ctx context.Context, sessionID string, keys ...string) error
}

// TokenVerifier validates an access token and returns its claims.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.TokenClaims, error)
}

// UserRepository loads live user records.
// FindByID returns sentinel.ErrNotFound when no user has the id.
type UserRepository interface {
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
}

// RequestContext is the identity evidence carried by one request.
type RequestContext struct {
	SessionID   string
	BearerToken string
}
