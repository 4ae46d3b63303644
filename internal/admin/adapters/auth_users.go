// Package adapters connects the admin service to stores owned by other
// domains.
package adapters

import (
	"context"

	"bellgas/internal/admin"
	authModels "bellgas/internal/auth/models"
)

// UserLister is satisfied by both auth user stores.
type UserLister interface {
	ListAll(ctx context.Context) ([]*authModels.User, error)
}

// AuthUsers exposes auth accounts to the admin service. Password hashes do
// not cross this boundary.
func AuthUsers(store UserLister) admin.UserStore {
	return authUsers{store: store}
}

type authUsers struct {
	store UserLister
}

func (a authUsers) ListAll(ctx context.Context) ([]*admin.AdminUser, error) {
	users, err := a.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*admin.AdminUser, 0, len(users))
	for _, u := range users {
		if u == nil {
			continue
		}
		out = append(out, &admin.AdminUser{
			ID:        u.ID,
			Email:     u.Email,
			Name:      u.Name,
			Role:      u.Role,
			Active:    u.IsActive,
			CreatedAt: u.CreatedAt,
		})
	}
	return out, nil
}
