package preferences

import (
	"context"
	"fmt"

	"story-server/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "story:prefs:"

// RedisStore хранит предпочтения пользователя в хеше story:prefs:{email}.
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore создает хранилище поверх готового клиента.
func NewRedisStore(client *redis.Client, logger *zap.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		logger: logger.Named("RedisPreferenceStore"),
	}
}

func redisKey(email string) string {
	return redisKeyPrefix + email
}

// List читает хеш пользователя и накладывает его на значения по умолчанию.
func (s *RedisStore) List(ctx context.Context, email string) ([]models.UserPreference, error) {
	stored, err := s.client.HGetAll(ctx, redisKey(email)).Result()
	if err != nil {
		s.logger.Error("Failed to read preferences from redis", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("failed to read preferences from redis: %w", err)
	}
	return mergeDefaults(stored), nil
}

// Set записывает значение и возвращает обновленный набор одним пайплайном.
func (s *RedisStore) Set(ctx context.Context, email, name, value string) ([]models.UserPreference, error) {
	key := redisKey(email)

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, name, value)
	all := pipe.HGetAll(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Error("Failed to update preference in redis",
			zap.String("email", email),
			zap.String("name", name),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to update preference in redis: %w", err)
	}

	s.logger.Debug("Preference updated", zap.String("email", email), zap.String("name", name))
	return mergeDefaults(all.Val()), nil
}

// SetMany записывает все поля одним HSET внутри транзакции.
func (s *RedisStore) SetMany(ctx context.Context, email string, values map[string]string) ([]models.UserPreference, error) {
	key := redisKey(email)
	if len(values) == 0 {
		return s.List(ctx, email)
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, values)
	all := pipe.HGetAll(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Error("Failed to update preferences in redis",
			zap.String("email", email),
			zap.Int("count", len(values)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to update preferences in redis: %w", err)
	}

	s.logger.Debug("Preferences updated", zap.String("email", email), zap.Int("count", len(values)))
	return mergeDefaults(all.Val()), nil
}
