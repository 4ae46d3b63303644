package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"bellgas/internal/audit"
	auditstore "bellgas/internal/audit/store"
	"bellgas/internal/auth/metrics"
	"bellgas/internal/auth/models"
	"bellgas/internal/auth/password"
	"bellgas/internal/auth/store/revocation"
	"bellgas/internal/auth/store/session"
	userstore "bellgas/internal/auth/store/user"
	jwttoken "bellgas/internal/jwt_token"
	"bellgas/internal/ratelimit/service/authlockout"
	lockoutstore "bellgas/internal/ratelimit/store/authlockout"
	id "bellgas/pkg/domain"
	dErrors "bellgas/pkg/domain-errors"
	"bellgas/pkg/platform/sentinel"
	"bellgas/pkg/requestcontext"
)

// =============================================================================
// Auth Service Test Suite
// =============================================================================
// Justification for unit tests: login must leave exactly the session keys the
// resolver chain reads, and logout must revoke every presented token. Both are
// verified against the real in-memory stores and HS256 issuer.

type ServiceSuite struct {
	suite.Suite
	users    *userstore.InMemoryUserStore
	sessions *session.InMemoryStore
	tokens   *jwttoken.JWTServiceAdapter
	audit    *auditstore.InMemoryStore
	metrics  *metrics.Metrics
	service  *Service
	ctx      context.Context
	customer *models.User
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.users = userstore.New()
	s.sessions = session.NewInMemory(time.Hour)
	s.tokens = jwttoken.NewJWTServiceAdapter(
		jwttoken.NewJWTService("test-key", "bellgas", "bellgas-api"),
		revocation.NewInMemoryTRL(),
		15*time.Minute,
	)
	s.audit = auditstore.NewInMemoryStore()
	s.metrics = metrics.New(prometheus.NewRegistry())

	var err error
	s.service, err = New(s.users, s.sessions, s.tokens,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
		WithAuditPublisher(audit.NewPublisher(s.audit)),
	)
	s.Require().NoError(err)

	s.customer = s.saveUser("sam@bellgas.test", "correct-horse", id.RoleCustomer, true)
	s.ctx = requestcontext.WithClientMetadata(context.Background(), "198.51.100.7",
		"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0")
}

func (s *ServiceSuite) saveUser(email, plain string, role id.Role, active bool) *models.User {
	hash, err := password.Hash(plain)
	s.Require().NoError(err)
	u := &models.User{
		ID:           id.UserID(uuid.New()),
		Email:        email,
		Name:         "Sam",
		PasswordHash: hash,
		Role:         role,
		IsActive:     active,
	}
	s.Require().NoError(s.users.Save(context.Background(), u))
	return u
}

func (s *ServiceSuite) lastAudit() audit.Event {
	events, err := s.audit.ListRecent(context.Background(), 1)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	return events[0]
}

func (s *ServiceSuite) TestNew() {
	s.Run("nil user store returns error", func() {
		_, err := New(nil, s.sessions, s.tokens)
		s.ErrorContains(err, "user store is required")
	})
	s.Run("nil session store returns error", func() {
		_, err := New(s.users, nil, s.tokens)
		s.ErrorContains(err, "session store is required")
	})
	s.Run("nil token manager returns error", func() {
		_, err := New(s.users, s.sessions, nil)
		s.ErrorContains(err, "token manager is required")
	})
}

// =============================================================================
// Login
// =============================================================================

func (s *ServiceSuite) TestLogin_WritesResolverSessionKeys() {
	result, err := s.service.Login(s.ctx, LoginRequest{Email: "SAM@bellgas.test", Password: "correct-horse"}, "")
	s.Require().NoError(err)

	s.NotEmpty(result.AccessToken)
	s.Equal(s.customer.ID, result.Principal.ID)
	s.Equal(models.SourcePrimarySession, result.Principal.Source)
	s.WithinDuration(time.Now().Add(15*time.Minute), result.ExpiresAt, time.Minute)

	userID, err := s.sessions.Get(s.ctx, result.SessionID, models.SessionKeyUserID)
	s.Require().NoError(err)
	s.Equal(s.customer.ID.String(), userID)

	flag, err := s.sessions.Get(s.ctx, result.SessionID, models.SessionKeyAuthenticated)
	s.Require().NoError(err)
	s.Equal("true", flag)

	blob, err := s.sessions.Get(s.ctx, result.SessionID, models.SessionKeyUserData)
	s.Require().NoError(err)
	var data models.StoredUserData
	s.Require().NoError(json.Unmarshal([]byte(blob), &data))
	s.Equal("CUSTOMER", data.Role)

	token, err := s.sessions.Get(s.ctx, result.SessionID, models.SessionKeyJWTToken)
	s.Require().NoError(err)
	s.Equal(result.AccessToken, token)

	event := s.lastAudit()
	s.Equal(audit.ActionLoginSucceeded, event.Action)
	s.Equal("198.51.100.7", event.ClientIP)
	s.Contains(event.Device, "Firefox")
	s.Equal(1.0, testutil.ToFloat64(s.metrics.LoginAttempts.WithLabelValues("success")))
}

func (s *ServiceSuite) TestLogin_ReplacesExistingSession() {
	s.Require().NoError(s.sessions.Put(s.ctx, "anonymous-session", map[string]string{"cart": "1"}))

	result, err := s.service.Login(s.ctx, LoginRequest{Email: "sam@bellgas.test", Password: "correct-horse"}, "anonymous-session")
	s.Require().NoError(err)

	s.NotEqual("anonymous-session", result.SessionID)
	_, err = s.sessions.Get(s.ctx, "anonymous-session", "cart")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ServiceSuite) TestLogin_Failures() {
	s.Run("missing fields fail validation", func() {
		_, err := s.service.Login(s.ctx, LoginRequest{Email: " "}, "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown email is invalid credentials", func() {
		_, err := s.service.Login(s.ctx, LoginRequest{Email: "ghost@bellgas.test", Password: "x"}, "")
		s.ErrorIs(err, ErrInvalidCredentials)
		s.Equal("unknown email", s.lastAudit().Reason)
	})

	s.Run("wrong password is invalid credentials", func() {
		_, err := s.service.Login(s.ctx, LoginRequest{Email: "sam@bellgas.test", Password: "wrong"}, "")
		s.ErrorIs(err, ErrInvalidCredentials)
		s.Equal(audit.ActionLoginFailed, s.lastAudit().Action)
	})

	s.Run("inactive account is forbidden", func() {
		s.saveUser("gone@bellgas.test", "pw", id.RoleCustomer, false)
		_, err := s.service.Login(s.ctx, LoginRequest{Email: "gone@bellgas.test", Password: "pw"}, "")
		s.ErrorIs(err, ErrAccountDisabled)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Equal(2.0, testutil.ToFloat64(s.metrics.LoginAttempts.WithLabelValues("invalid_credentials")))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.LoginAttempts.WithLabelValues("inactive")))
}

func (s *ServiceSuite) TestLogin_LockoutAfterRepeatedFailures() {
	lockout, err := authlockout.New(lockoutstore.New(), authlockout.WithConfig(authlockout.Config{AttemptsPerWindow: 2}))
	s.Require().NoError(err)
	svc, err := New(s.users, s.sessions, s.tokens,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(audit.NewPublisher(s.audit)),
		WithLockout(lockout),
	)
	s.Require().NoError(err)

	for range 2 {
		_, err = svc.Login(s.ctx, LoginRequest{Email: "sam@bellgas.test", Password: "wrong"}, "")
		s.Require().ErrorIs(err, ErrInvalidCredentials)
	}

	_, err = svc.Login(s.ctx, LoginRequest{Email: "sam@bellgas.test", Password: "correct-horse"}, "")
	s.ErrorIs(err, ErrTooManyAttempts)
	s.True(dErrors.HasCode(err, dErrors.CodeRateLimited))
	s.Equal("locked out", s.lastAudit().Reason)

	other := requestcontext.WithClientMetadata(context.Background(), "203.0.113.20", "")
	_, err = svc.Login(other, LoginRequest{Email: "sam@bellgas.test", Password: "correct-horse"}, "")
	s.NoError(err, "lockout is scoped to the client address")
}

func (s *ServiceSuite) TestLogin_SuccessClearsFailures() {
	lockout, err := authlockout.New(lockoutstore.New(), authlockout.WithConfig(authlockout.Config{AttemptsPerWindow: 2}))
	s.Require().NoError(err)
	svc, err := New(s.users, s.sessions, s.tokens, WithLockout(lockout))
	s.Require().NoError(err)

	_, err = svc.Login(s.ctx, LoginRequest{Email: "sam@bellgas.test", Password: "wrong"}, "")
	s.Require().ErrorIs(err, ErrInvalidCredentials)
	_, err = svc.Login(s.ctx, LoginRequest{Email: "sam@bellgas.test", Password: "correct-horse"}, "")
	s.Require().NoError(err)

	result, err := lockout.Check(s.ctx, "sam@bellgas.test", "198.51.100.7")
	s.Require().NoError(err)
	s.Equal(2, result.Remaining)
}

// =============================================================================
// Logout
// =============================================================================

func (s *ServiceSuite) TestLogout_RevokesSessionTokenAndDestroysSession() {
	result, err := s.service.Login(s.ctx, LoginRequest{Email: "sam@bellgas.test", Password: "correct-horse"}, "")
	s.Require().NoError(err)

	err = s.service.Logout(s.ctx, result.Principal, result.SessionID, "")
	s.Require().NoError(err)

	_, err = s.sessions.Get(s.ctx, result.SessionID, models.SessionKeyUserID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.tokens.Verify(s.ctx, result.AccessToken)
	s.ErrorIs(err, jwttoken.ErrTokenRevoked)

	event := s.lastAudit()
	s.Equal(audit.ActionLogout, event.Action)
	s.Equal(s.customer.ID, event.UserID)
}

func (s *ServiceSuite) TestLogout_RevokesBearerToken() {
	token, _, err := s.tokens.Issue(s.ctx, s.customer)
	s.Require().NoError(err)

	err = s.service.Logout(s.ctx, models.NewPrincipal(s.customer, models.SourceBearerToken), "", token)
	s.Require().NoError(err)

	_, err = s.tokens.Verify(s.ctx, token)
	s.ErrorIs(err, jwttoken.ErrTokenRevoked)
}

func (s *ServiceSuite) TestLogout_InvalidTokenIsIgnored() {
	err := s.service.Logout(s.ctx, nil, "", "garbage")
	s.NoError(err)
}
