//go:build integration

package redis_test

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/suite"

	isoredis "isolationd/internal/isolation/store/redis"
	"isolationd/pkg/platform/sentinel"
	"isolationd/pkg/testutil/containers"
)

type RedisBackendSuite struct {
	suite.Suite
	redis   *containers.RedisContainer
	backend *isoredis.Backend
}

func TestRedisBackendSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisBackendSuite))
}

func (s *RedisBackendSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.backend = isoredis.NewRedis(s.redis.Client, isoredis.WithKeyPrefix("test:"))
}

func (s *RedisBackendSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisBackendSuite) TestRoundTrip() {
	ctx := context.Background()

	_, err := s.backend.Load(ctx, "isolation/a")
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.backend.Save(ctx, "isolation/a", []byte("value")))
	got, err := s.backend.Load(ctx, "isolation/a")
	s.Require().NoError(err)
	s.Equal("value", string(got))

	raw, err := s.redis.Client.Get(ctx, "test:isolation/a").Result()
	s.Require().NoError(err)
	s.Equal("value", raw)

	ttl, err := s.redis.Client.TTL(ctx, "test:isolation/a").Result()
	s.Require().NoError(err)
	s.Negative(ttl, "values must not expire")

	s.Require().NoError(s.backend.Delete(ctx, "isolation/a"))
	_, err = s.backend.Load(ctx, "isolation/a")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisBackendSuite) TestKeys() {
	ctx := context.Background()
	s.Require().NoError(s.backend.Save(ctx, "isolation/a", []byte("a")))
	s.Require().NoError(s.backend.Save(ctx, "isolation/b", []byte("b")))
	s.Require().NoError(s.backend.Save(ctx, "config/isolation-policy", []byte("{}")))

	keys, err := s.backend.Keys(ctx, "isolation/")
	s.Require().NoError(err)
	sort.Strings(keys)
	s.Equal([]string{"isolation/a", "isolation/b"}, keys)
}
