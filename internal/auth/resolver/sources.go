package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"bellgas/internal/auth/models"
	id "bellgas/pkg/domain"
	"bellgas/pkg/platform/sentinel"
)

// errNoEvidence marks a source that had nothing to inspect for this request.
var errNoEvidence = errors.New("no identity evidence")

// errInactiveUser marks evidence that pointed at a disabled account.
var errInactiveUser = errors.New("user is inactive")

// Source is one step of the identity chain. Lookup returns a principal or
// an error; any error advances the chain.
type Source interface {
	Name() models.Source
	Lookup(ctx context.Context, rc RequestContext) (*models.Principal, error)
}

// loadActive resolves userID against the live record and rejects inactive
// accounts.
func loadActive(ctx context.Context, users UserRepository, userID id.UserID, source models.Source) (*models.Principal, error) {
	user, err := users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", userID, err)
	}
	if !user.IsActive {
		return nil, errInactiveUser
	}
	return models.NewPrincipal(user, source), nil
}

// sessionValue reads key from the request's session, mapping a missing
// session or key to errNoEvidence.
func sessionValue(ctx context.Context, sessions SessionStore, rc RequestContext, key string) (string, error) {
	if rc.SessionID == "" {
		return "", errNoEvidence
	}
	value, err := sessions.Get(ctx, rc.SessionID, key)
	if errors.Is(err, sentinel.ErrNotFound) {
		return "", errNoEvidence
	}
	if err != nil {
		return "", fmt.Errorf("read session key %s: %w", key, err)
	}
	if value == "" {
		return "", errNoEvidence
	}
	return value, nil
}

// PrimarySessionSource trusts the user id stored by a completed login.
type PrimarySessionSource struct {
	sessions SessionStore
	users    UserRepository
}

func NewPrimarySessionSource(sessions SessionStore, users UserRepository) *PrimarySessionSource {
	return &PrimarySessionSource{sessions: sessions, users: users}
}

func (s *PrimarySessionSource) Name() models.Source { return models.SourcePrimarySession }

func (s *PrimarySessionSource) Lookup(ctx context.Context, rc RequestContext) (*models.Principal, error) {
	raw, err := sessionValue(ctx, s.sessions, rc, models.SessionKeyUserID)
	if err != nil {
		return nil, err
	}
	userID, err := id.ParseUserID(raw)
	if err != nil {
		return nil, err
	}
	return loadActive(ctx, s.users, userID, models.SourcePrimarySession)
}

// StoredUserDataSource reads the user_data snapshot kept next to the
// authenticated flag. The snapshot only names the user; role and status
// come from the live record.
type StoredUserDataSource struct {
	sessions SessionStore
	users    UserRepository
}

func NewStoredUserDataSource(sessions SessionStore, users UserRepository) *StoredUserDataSource {
	return &StoredUserDataSource{sessions: sessions, users: users}
}

func (s *StoredUserDataSource) Name() models.Source { return models.SourceStoredSessionData }

func (s *StoredUserDataSource) Lookup(ctx context.Context, rc RequestContext) (*models.Principal, error) {
	flag, err := sessionValue(ctx, s.sessions, rc, models.SessionKeyAuthenticated)
	if err != nil {
		return nil, err
	}
	if flag != "true" {
		return nil, errNoEvidence
	}
	blob, err := sessionValue(ctx, s.sessions, rc, models.SessionKeyUserData)
	if err != nil {
		return nil, err
	}
	var data models.StoredUserData
	if err := json.Unmarshal([]byte(blob), &data); err != nil {
		return nil, fmt.Errorf("decode stored user data: %w", err)
	}
	userID, err := id.ParseUserID(data.ID)
	if err != nil {
		return nil, err
	}
	return loadActive(ctx, s.users, userID, models.SourceStoredSessionData)
}

// SessionTokenSource verifies the access token kept in the session.
type SessionTokenSource struct {
	sessions SessionStore
	tokens   TokenVerifier
	users    UserRepository
}

func NewSessionTokenSource(sessions SessionStore, tokens TokenVerifier, users UserRepository) *SessionTokenSource {
	return &SessionTokenSource{sessions: sessions, tokens: tokens, users: users}
}

func (s *SessionTokenSource) Name() models.Source { return models.SourceSessionToken }

func (s *SessionTokenSource) Lookup(ctx context.Context, rc RequestContext) (*models.Principal, error) {
	token, err := sessionValue(ctx, s.sessions, rc, models.SessionKeyJWTToken)
	if err != nil {
		return nil, err
	}
	claims, err := s.tokens.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	return loadActive(ctx, s.users, claims.UserID, models.SourceSessionToken)
}

// BearerTokenSource verifies the token from the Authorization header.
type BearerTokenSource struct {
	tokens TokenVerifier
	users  UserRepository
}

func NewBearerTokenSource(tokens TokenVerifier, users UserRepository) *BearerTokenSource {
	return &BearerTokenSource{tokens: tokens, users: users}
}

func (s *BearerTokenSource) Name() models.Source { return models.SourceBearerToken }

func (s *BearerTokenSource) Lookup(ctx context.Context, rc RequestContext) (*models.Principal, error) {
	if rc.BearerToken == "" {
		return nil, errNoEvidence
	}
	claims, err := s.tokens.Verify(ctx, rc.BearerToken)
	if err != nil {
		return nil, err
	}
	return loadActive(ctx, s.users, claims.UserID, models.SourceBearerToken)
}

// DefaultSources returns the chain in its fixed evaluation order.
func DefaultSources(sessions SessionStore, tokens TokenVerifier, users UserRepository) []Source {
	return []Source{
		NewPrimarySessionSource(sessions, users),
		NewStoredUserDataSource(sessions, users),
		NewSessionTokenSource(sessions, tokens, users),
		NewBearerTokenSource(tokens, users),
	}
}
