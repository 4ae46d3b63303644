package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "bellgas/pkg/domain"
	dErrors "bellgas/pkg/domain-errors"
)

var (
	ErrTokenExpired = dErrors.New(dErrors.CodeUnauthorized, "token has expired")
	ErrTokenInvalid = dErrors.New(dErrors.CodeUnauthorized, "invalid token")
)

// Claims is the access token body. The account id travels in sub.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTService signs and verifies HS256 access tokens for one issuer and
// audience.
type JWTService struct {
	key      []byte
	issuer   string
	audience string
	now      func() time.Time
	leeway   time.Duration
	parser   *jwt.Parser
}

type Option func(*JWTService)

// WithClock replaces the wall clock for issuing and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *JWTService) { s.now = now }
}

// WithLeeway tolerates clock skew between replicas.
func WithLeeway(d time.Duration) Option {
	return func(s *JWTService) { s.leeway = d }
}

func NewJWTService(signingKey, issuer, audience string, opts ...Option) *JWTService {
	s := &JWTService{
		key:      []byte(signingKey),
		issuer:   issuer,
		audience: audience,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(s.leeway),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	return s
}

// GenerateAccessToken signs a token for the account. The returned claims
// carry the jti that revocation keys on.
func (s *JWTService) GenerateAccessToken(userID id.UserID, role id.Role, expiresIn time.Duration) (string, *Claims, error) {
	issued := s.now()
	claims := &Claims{
		Role: role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(expiresIn)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// ValidateToken returns ErrTokenExpired for otherwise good tokens past exp
// and ErrTokenInvalid for everything else.
func (s *JWTService) ValidateToken(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := s.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	})
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	default:
		return nil, ErrTokenInvalid
	}
}
