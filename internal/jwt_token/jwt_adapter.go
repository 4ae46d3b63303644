package jwttoken

import (
	"context"
	"fmt"
	"time"

	"bellgas/internal/auth/models"
	id "bellgas/pkg/domain"
	dErrors "bellgas/pkg/domain-errors"
	"bellgas/pkg/requestcontext"
)

// ErrTokenRevoked is returned for tokens on the revocation list.
var ErrTokenRevoked = dErrors.New(dErrors.CodeUnauthorized, "token has been revoked")

// RevocationList is consulted for every verified token.
type RevocationList interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// ToModelClaims converts wire claims into the auth domain's claims.
func ToModelClaims(claims *Claims) (*models.TokenClaims, error) {
	userID, err := id.ParseUserID(claims.Subject)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	role, err := id.ParseRole(claims.Role)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	out := &models.TokenClaims{
		UserID: userID,
		Role:   role,
		JTI:    claims.ID,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// JWTServiceAdapter issues and verifies tokens for the auth module and
// enforces revocation.
type JWTServiceAdapter struct {
	service     *JWTService
	revocations RevocationList
	ttl         time.Duration
}

func NewJWTServiceAdapter(service *JWTService, revocations RevocationList, ttl time.Duration) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service, revocations: revocations, ttl: ttl}
}

// Issue signs an access token for user.
func (a *JWTServiceAdapter) Issue(_ context.Context, user *models.User) (string, *models.TokenClaims, error) {
	token, claims, err := a.service.GenerateAccessToken(user.ID, user.Role, a.ttl)
	if err != nil {
		return "", nil, fmt.Errorf("sign access token: %w", err)
	}
	out, err := ToModelClaims(claims)
	if err != nil {
		return "", nil, err
	}
	return token, out, nil
}

// Verify validates signature, expiry and revocation.
func (a *JWTServiceAdapter) Verify(ctx context.Context, token string) (*models.TokenClaims, error) {
	claims, err := a.service.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	out, err := ToModelClaims(claims)
	if err != nil {
		return nil, err
	}
	if a.revocations != nil {
		revoked, err := a.revocations.IsRevoked(ctx, out.JTI)
		if err != nil {
			return nil, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}
	return out, nil
}

// Revoke blocks claims.JTI for the token's remaining lifetime, measured on
// the request clock the revocation stores also use.
func (a *JWTServiceAdapter) Revoke(ctx context.Context, claims *models.TokenClaims) error {
	if a.revocations == nil || claims == nil || claims.JTI == "" {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(requestcontext.Now(ctx))
	if ttl <= 0 {
		return nil
	}
	return a.revocations.RevokeToken(ctx, claims.JTI, ttl)
}
