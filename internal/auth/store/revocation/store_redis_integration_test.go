//go:build integration

package revocation_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"bellgas/internal/auth/store/revocation"
	"bellgas/pkg/requestcontext"
	"bellgas/pkg/testutil/containers"
)

type RevocationIntegrationSuite struct {
	suite.Suite
	redis    *containers.RedisContainer
	postgres *containers.PostgresContainer
}

func TestRevocationIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RevocationIntegrationSuite))
}

func (s *RevocationIntegrationSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.postgres = mgr.GetPostgres(s.T())
}

func (s *RevocationIntegrationSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.redis.FlushAll(ctx))
	s.Require().NoError(s.postgres.TruncateTables(ctx, "token_revocations"))
}

func (s *RevocationIntegrationSuite) TestRedisTRL() {
	ctx := context.Background()
	trl := revocation.NewRedisTRL(s.redis.Client)
	jti := uuid.NewString()

	revoked, err := trl.IsRevoked(ctx, jti)
	s.Require().NoError(err)
	s.False(revoked)

	s.Require().NoError(trl.RevokeToken(ctx, jti, time.Minute))
	revoked, err = trl.IsRevoked(ctx, jti)
	s.Require().NoError(err)
	s.True(revoked)
}

func (s *RevocationIntegrationSuite) TestRedisTRL_ExpiresWithTTL() {
	ctx := context.Background()
	trl := revocation.NewRedisTRL(s.redis.Client)
	jti := uuid.NewString()

	s.Require().NoError(trl.RevokeToken(ctx, jti, time.Minute))

	ttl, err := s.redis.Client.TTL(ctx, "bellgas:revoked:"+jti).Result()
	s.Require().NoError(err)
	s.InDelta(time.Minute.Seconds(), ttl.Seconds(), 2)
}

func (s *RevocationIntegrationSuite) TestPostgresTRL() {
	now := time.Now().UTC().Truncate(time.Millisecond)
	ctx := requestcontext.WithTime(context.Background(), now)
	trl := revocation.NewPostgresTRL(s.postgres.DB)
	jti := uuid.NewString()

	s.Require().NoError(trl.RevokeToken(ctx, jti, time.Minute))
	revoked, err := trl.IsRevoked(ctx, jti)
	s.Require().NoError(err)
	s.True(revoked)

	later := requestcontext.WithTime(context.Background(), now.Add(2*time.Minute))
	revoked, err = trl.IsRevoked(later, jti)
	s.Require().NoError(err)
	s.False(revoked)

	removed, err := trl.DeleteExpired(later)
	s.Require().NoError(err)
	s.Equal(1, removed)
}

func (s *RevocationIntegrationSuite) TestPostgresTRL_RevokeNeverShortens() {
	now := time.Now().UTC().Truncate(time.Millisecond)
	ctx := requestcontext.WithTime(context.Background(), now)
	trl := revocation.NewPostgresTRL(s.postgres.DB)
	jti := uuid.NewString()

	s.Require().NoError(trl.RevokeToken(ctx, jti, time.Hour))
	s.Require().NoError(trl.RevokeToken(ctx, jti, time.Minute))

	revoked, err := trl.IsRevoked(requestcontext.WithTime(context.Background(), now.Add(30*time.Minute)), jti)
	s.Require().NoError(err)
	s.True(revoked)
}
