//go:build integration

package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"bellgas/internal/auth/models"
	"bellgas/internal/auth/store/user"
	id "bellgas/pkg/domain"
	"bellgas/pkg/platform/sentinel"
	"bellgas/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *user.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = user.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "users")
	s.Require().NoError(err)
}

func newUser(email string, role id.Role) *models.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.User{
		ID:           id.UserID(uuid.New()),
		Email:        email,
		Name:         "Integration User",
		PasswordHash: "hash",
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (s *PostgresStoreSuite) TestSaveAndFind() {
	ctx := context.Background()
	u := newUser("Depot@BellGas.test", id.RoleMerchant)
	s.Require().NoError(s.store.Save(ctx, u))

	byID, err := s.store.FindByID(ctx, u.ID)
	s.Require().NoError(err)
	s.Equal(id.RoleMerchant, byID.Role)
	s.True(byID.IsActive)

	byEmail, err := s.store.FindByEmail(ctx, "depot@bellgas.test")
	s.Require().NoError(err)
	s.Equal(u.ID, byEmail.ID)
}

func (s *PostgresStoreSuite) TestSaveUpdatesExisting() {
	ctx := context.Background()
	u := newUser("flip@bellgas.test", id.RoleCustomer)
	s.Require().NoError(s.store.Save(ctx, u))

	u.IsActive = false
	s.Require().NoError(s.store.Save(ctx, u))

	found, err := s.store.FindByID(ctx, u.ID)
	s.Require().NoError(err)
	s.False(found.IsActive)
}

func (s *PostgresStoreSuite) TestDuplicateEmailIsRejected() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, newUser("same@bellgas.test", id.RoleCustomer)))

	err := s.store.Save(ctx, newUser("SAME@bellgas.test", id.RoleCustomer))
	s.ErrorIs(err, sentinel.ErrInvalidState)
}

func (s *PostgresStoreSuite) TestNotFound() {
	_, err := s.store.FindByID(context.Background(), id.UserID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListAll() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, newUser("b@bellgas.test", id.RoleCustomer)))
	s.Require().NoError(s.store.Save(ctx, newUser("a@bellgas.test", id.RoleAdmin)))

	users, err := s.store.ListAll(ctx)
	s.Require().NoError(err)
	s.Require().Len(users, 2)
	s.Equal("a@bellgas.test", users[0].Email)
	s.Equal(id.RoleAdmin, users[0].Role)
}
