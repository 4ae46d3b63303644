//go:build integration

package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"bellgas/internal/auth/models"
	"bellgas/internal/auth/store/session"
	"bellgas/pkg/platform/sentinel"
	"bellgas/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *session.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.store = session.NewRedis(s.redis.Client, time.Minute)
}

func (s *RedisStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.redis.FlushAll(ctx)
	s.Require().NoError(err)
}

func (s *RedisStoreSuite) TestPutGetForget() {
	ctx := context.Background()
	sid := uuid.NewString()

	err := s.store.Put(ctx, sid, map[string]string{
		models.SessionKeyUserID:   uuid.NewString(),
		models.SessionKeyJWTToken: "token",
	})
	s.Require().NoError(err)

	token, err := s.store.Get(ctx, sid, models.SessionKeyJWTToken)
	s.Require().NoError(err)
	s.Equal("token", token)

	s.Require().NoError(s.store.Forget(ctx, sid, models.SessionKeyJWTToken))
	_, err = s.store.Get(ctx, sid, models.SessionKeyJWTToken)
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.Get(ctx, sid, models.SessionKeyUserID)
	s.NoError(err)
}

func (s *RedisStoreSuite) TestPutRefreshesTTL() {
	ctx := context.Background()
	sid := uuid.NewString()

	s.Require().NoError(s.store.Put(ctx, sid, map[string]string{"a": "1"}))

	ttl, err := s.redis.Client.TTL(ctx, "session:"+sid).Result()
	s.Require().NoError(err)
	s.Greater(ttl, 50*time.Second)
	s.LessOrEqual(ttl, time.Minute)
}

func (s *RedisStoreSuite) TestDestroy() {
	ctx := context.Background()
	sid := uuid.NewString()
	s.Require().NoError(s.store.Put(ctx, sid, map[string]string{"a": "1"}))

	s.Require().NoError(s.store.Destroy(ctx, sid))

	_, err := s.store.Get(ctx, sid, "a")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestMissingSession() {
	_, err := s.store.Get(context.Background(), uuid.NewString(), models.SessionKeyUserID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestUpdateRequiresExistingSession() {
	ctx := context.Background()
	unknown := uuid.NewString()

	err := s.store.Update(ctx, unknown, map[string]string{models.SessionKeyUserID: uuid.NewString()})
	s.ErrorIs(err, sentinel.ErrNotFound)
	exists, err := s.redis.Client.Exists(ctx, "session:"+unknown).Result()
	s.Require().NoError(err)
	s.Zero(exists)

	sid := uuid.NewString()
	s.Require().NoError(s.store.Put(ctx, sid, map[string]string{"a": "1"}))
	s.Require().NoError(s.store.Update(ctx, sid, map[string]string{"b": "2", "c": "3"}))

	c, err := s.store.Get(ctx, sid, "c")
	s.Require().NoError(err)
	s.Equal("3", c)
	ttl, err := s.redis.Client.TTL(ctx, "session:"+sid).Result()
	s.Require().NoError(err)
	s.Greater(ttl, 50*time.Second)
}
