package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"bellgas/internal/audit"
	"bellgas/internal/auth/device"
	"bellgas/internal/auth/models"
	"bellgas/internal/auth/password"
	id "bellgas/pkg/domain"
	dErrors "bellgas/pkg/domain-errors"
	"bellgas/pkg/platform/sentinel"
	"bellgas/pkg/requestcontext"
)

var (
	ErrInvalidCredentials = dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	ErrAccountDisabled    = dErrors.New(dErrors.CodeForbidden, "account is disabled")
	ErrTooManyAttempts    = dErrors.New(dErrors.CodeRateLimited, "too many failed login attempts")
)

// Login checks credentials and opens a new session holding the user id, the
// user_data snapshot and the access token. Any session the caller already
// had is destroyed so a pre-login session id is never reused.
func (s *Service) Login(ctx context.Context, req LoginRequest, currentSessionID string) (*LoginResult, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email and password are required")
	}
	deviceLabel := device.ParseUserAgent(requestcontext.UserAgent(ctx))
	clientIP := requestcontext.ClientIP(ctx)

	if s.lockout != nil {
		result, err := s.lockout.Check(ctx, email, clientIP)
		if err != nil {
			return nil, err
		}
		if !result.Allowed {
			s.countLogin("locked")
			s.emit(ctx, audit.Event{
				Action: audit.ActionLoginFailed,
				Email:  email,
				Reason: "locked out",
				Device: deviceLabel,
			})
			return nil, ErrTooManyAttempts
		}
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, sentinel.ErrNotFound) {
		s.rejectLogin(ctx, email, "unknown email", deviceLabel)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	if err := password.Verify(req.Password, user.PasswordHash); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			s.rejectLogin(ctx, email, "password mismatch", deviceLabel)
			return nil, ErrInvalidCredentials
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify password")
	}
	if !user.IsActive {
		s.countLogin("inactive")
		s.emit(ctx, audit.Event{
			Action: audit.ActionLoginFailed,
			UserID: user.ID,
			Email:  user.Email,
			Reason: "account disabled",
			Device: deviceLabel,
		})
		return nil, ErrAccountDisabled
	}

	token, claims, err := s.tokens.Issue(ctx, user)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue access token")
	}

	if currentSessionID != "" {
		if err := s.sessions.Destroy(ctx, currentSessionID); err != nil {
			s.logger.WarnContext(ctx, "failed to destroy pre-login session",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}

	principal := models.NewPrincipal(user, models.SourcePrimarySession)
	blob, err := json.Marshal(models.NewStoredUserData(principal))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode session data")
	}
	sessionID := id.NewSessionID().String()
	err = s.sessions.Put(ctx, sessionID, map[string]string{
		models.SessionKeyUserID:        user.ID.String(),
		models.SessionKeyAuthenticated: "true",
		models.SessionKeyUserData:      string(blob),
		models.SessionKeyJWTToken:      token,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create session")
	}

	if s.lockout != nil {
		if err := s.lockout.Clear(ctx, email, clientIP); err != nil {
			s.logger.WarnContext(ctx, "failed to clear login failures",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}

	s.countLogin("success")
	s.emit(ctx, audit.Event{
		Action: audit.ActionLoginSucceeded,
		UserID: user.ID,
		Email:  user.Email,
		Source: principal.Source.String(),
		Device: deviceLabel,
	})
	s.logger.InfoContext(ctx, "user logged in",
		"user_id", user.ID.String(),
		"role", user.Role.String(),
		"request_id", requestcontext.RequestID(ctx),
	)

	return &LoginResult{
		SessionID:   sessionID,
		AccessToken: token,
		ExpiresAt:   claims.ExpiresAt,
		Principal:   principal,
	}, nil
}

func (s *Service) rejectLogin(ctx context.Context, email, reason, deviceLabel string) {
	if s.lockout != nil {
		if _, err := s.lockout.RecordFailure(ctx, email, requestcontext.ClientIP(ctx)); err != nil {
			s.logger.WarnContext(ctx, "failed to record login failure",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}
	s.countLogin("invalid_credentials")
	s.emit(ctx, audit.Event{
		Action: audit.ActionLoginFailed,
		Email:  email,
		Reason: reason,
		Device: deviceLabel,
	})
	s.logger.InfoContext(ctx, "login rejected",
		"reason", reason,
		"request_id", requestcontext.RequestID(ctx),
	)
}
