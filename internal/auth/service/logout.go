package service

import (
	"context"
	"errors"

	"bellgas/internal/audit"
	"bellgas/internal/auth/models"
	dErrors "bellgas/pkg/domain-errors"
	"bellgas/pkg/platform/sentinel"
	"bellgas/pkg/requestcontext"
)

// Logout destroys the session and revokes every access token the request
// presented, from the session and from the Authorization header.
func (s *Service) Logout(ctx context.Context, principal *models.Principal, sessionID, bearerToken string) error {
	if sessionID != "" {
		sessionToken, err := s.sessions.Get(ctx, sessionID, models.SessionKeyJWTToken)
		switch {
		case err == nil:
			s.revoke(ctx, sessionToken)
		case !errors.Is(err, sentinel.ErrNotFound):
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read session")
		}
		if err := s.sessions.Destroy(ctx, sessionID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to destroy session")
		}
	}
	if bearerToken != "" {
		s.revoke(ctx, bearerToken)
	}

	event := audit.Event{Action: audit.ActionLogout}
	if principal != nil {
		event.UserID = principal.ID
		event.Email = principal.Email
		event.Source = principal.Source.String()
	}
	s.emit(ctx, event)
	return nil
}

// revoke blocks a still-valid token; tokens that no longer verify need no
// revocation.
func (s *Service) revoke(ctx context.Context, token string) {
	claims, err := s.tokens.Verify(ctx, token)
	if err != nil {
		return
	}
	if err := s.tokens.Revoke(ctx, claims); err != nil {
		s.logger.WarnContext(ctx, "failed to revoke access token",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}
