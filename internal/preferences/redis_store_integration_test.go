package preferences

import (
	"context"
	"os"
	"testing"
	"time"

	"story-server/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

type RedisStoreSuite struct {
	suite.Suite
	ctx       context.Context
	container *tcredis.RedisContainer
	client    *redis.Client
	store     *RedisStore
}

func (s *RedisStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error

	s.container, err = tcredis.Run(s.ctx,
		"docker.io/redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("* Ready to accept connections").
				WithOccurrence(1).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start redis container")

	uri, err := s.container.ConnectionString(s.ctx)
	require.NoError(s.T(), err)
	opts, err := redis.ParseURL(uri)
	require.NoError(s.T(), err)

	s.client = redis.NewClient(opts)
	require.NoError(s.T(), s.client.Ping(s.ctx).Err())
	s.store = NewRedisStore(s.client, zap.NewNop())
}

func (s *RedisStoreSuite) TearDownSuite() {
	if s.client != nil {
		s.client.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *RedisStoreSuite) SetupTest() {
	require.NoError(s.T(), s.client.FlushDB(s.ctx).Err())
}

func (s *RedisStoreSuite) TestDefaultsThenSet() {
	prefs, err := s.store.List(s.ctx, "a@example.com")
	s.Require().NoError(err)
	s.Equal("奇幻", valueOf(prefs, models.PreferenceStoryStyle))

	prefs, err = s.store.Set(s.ctx, "a@example.com", models.PreferenceStoryStyle, "科幻")
	s.Require().NoError(err)
	s.Equal("科幻", valueOf(prefs, models.PreferenceStoryStyle))

	other, err := s.store.List(s.ctx, "b@example.com")
	s.Require().NoError(err)
	s.Equal("奇幻", valueOf(other, models.PreferenceStoryStyle))
}

func (s *RedisStoreSuite) TestSetManyWritesAllFields() {
	prefs, err := s.store.SetMany(s.ctx, "a@example.com", map[string]string{
		models.PreferenceStoryStyle:    "科幻",
		models.PreferenceEmotionalTone: "紧张",
	})
	s.Require().NoError(err)
	s.Equal("科幻", valueOf(prefs, models.PreferenceStoryStyle))
	s.Equal("紧张", valueOf(prefs, models.PreferenceEmotionalTone))

	stored, err := s.client.HGetAll(s.ctx, redisKey("a@example.com")).Result()
	s.Require().NoError(err)
	s.Len(stored, 2)
}

func TestRedisStoreSuite(t *testing.T) {
	if os.Getenv("RUN_INTEGRATION_TESTS") != "1" {
		t.Skip("Skipping integration tests: set RUN_INTEGRATION_TESTS=1")
	}
	suite.Run(t, new(RedisStoreSuite))
}
