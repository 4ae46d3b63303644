package resolver

import (
	"bellgas/internal/auth/models"
	id "bellgas/pkg/domain"
)

// RequireRole passes principal through when its role is one of roles.
// A nil principal is unauthenticated, not forbidden.
func RequireRole(principal *models.Principal, roles ...id.Role) (*models.Principal, error) {
	if principal == nil {
		return nil, ErrUnauthenticated
	}
	if !principal.HasRole(roles...) {
		return nil, ErrAccessDenied
	}
	return principal, nil
}
