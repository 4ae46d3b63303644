package models

import (
	"time"

	id "bellgas/pkg/domain"
)

// Session keys written by login and promotion and read by the resolver chain.
const (
	SessionKeyUserID        = "auth.user_id"
	SessionKeyAuthenticated = "authenticated"
	SessionKeyUserData      = "user_data"
	SessionKeyJWTToken      = "jwt_token"
)

// Source names the chain step that produced a Principal.
type Source string

const (
	SourcePrimarySession    Source = "primary_session"
	SourceStoredSessionData Source = "stored_session_data"
	SourceSessionToken      Source = "session_token"
	SourceBearerToken       Source = "bearer_token"
)

func (s Source) String() string {
	return string(s)
}

// User is the persisted account record.
type User struct {
	ID           id.UserID
	Email        string
	Name         string
	PasswordHash string
	Role         id.Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal is the identity resolved for a single request. It is built per
// request and never cached.
type Principal struct {
	ID       id.UserID
	Email    string
	Name     string
	Role     id.Role
	IsActive bool
	Source   Source
}

// NewPrincipal builds a Principal from the live user record.
func NewPrincipal(u *User, source Source) *Principal {
	return &Principal{
		ID:       u.ID,
		Email:    u.Email,
		Name:     u.Name,
		Role:     u.Role,
		IsActive: u.IsActive,
		Source:   source,
	}
}

// HasRole reports whether the principal's role is one of roles.
func (p *Principal) HasRole(roles ...id.Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// StoredUserData is the JSON blob kept under SessionKeyUserData.
type StoredUserData struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// NewStoredUserData snapshots a principal for the session.
func NewStoredUserData(p *Principal) StoredUserData {
	return StoredUserData{
		ID:    p.ID.String(),
		Email: p.Email,
		Name:  p.Name,
		Role:  p.Role.String(),
	}
}

// TokenClaims are the verified claims of an access token.
type TokenClaims struct {
	UserID    id.UserID
	Role      id.Role
	JTI       string
	ExpiresAt time.Time
}
