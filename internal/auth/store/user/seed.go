package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bellgas/internal/auth/models"
	"bellgas/internal/auth/password"
	id "bellgas/pkg/domain"
	"bellgas/pkg/platform/sentinel"
)

// Store is the write side needed for seeding.
type Store interface {
	Save(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// SeedAccount describes a development login.
type SeedAccount struct {
	Email    string
	Name     string
	Password string
	Role     id.Role
}

// DevAccounts are created when the server runs without a database.
var DevAccounts = []SeedAccount{
	{Email: "admin@bellgas.test", Name: "BellGas Admin", Password: "admin-password", Role: id.RoleAdmin},
	{Email: "merchant@bellgas.test", Name: "BellGas Depot", Password: "merchant-password", Role: id.RoleMerchant},
	{Email: "customer@bellgas.test", Name: "Sam Customer", Password: "customer-password", Role: id.RoleCustomer},
}

// Seed creates each account whose email is not yet registered.
func Seed(ctx context.Context, store Store, accounts []SeedAccount) error {
	now := time.Now()
	for _, acct := range accounts {
		_, err := store.FindByEmail(ctx, acct.Email)
		if err == nil {
			continue
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return fmt.Errorf("seed %s: %w", acct.Email, err)
		}
		hash, err := password.Hash(acct.Password)
		if err != nil {
			return fmt.Errorf("seed %s: %w", acct.Email, err)
		}
		u := &models.User{
			ID:           id.UserID(uuid.New()),
			Email:        acct.Email,
			Name:         acct.Name,
			PasswordHash: hash,
			Role:         acct.Role,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := store.Save(ctx, u); err != nil {
			return fmt.Errorf("seed %s: %w", acct.Email, err)
		}
	}
	return nil
}
