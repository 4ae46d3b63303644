package admin

import (
	"time"

	id "bellgas/pkg/domain"
)

// AdminUser is the admin view of an account; it never carries credentials.
type AdminUser struct {
	ID        id.UserID
	Email     string
	Name      string
	Role      id.Role
	Active    bool
	CreatedAt time.Time
}
