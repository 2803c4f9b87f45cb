package main

import (
	"context"
	"fmt"

	"story-server/internal/config"
	"story-server/internal/database"
	"story-server/internal/messaging"
	"story-server/internal/preferences"
	"story-server/internal/repository"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type storage struct {
	users  repository.UserRepository
	shared repository.SharedStoryRepository
	close  func()
}

// setupStorage выбирает драйвер по STORAGE_DRIVER. Для postgres сначала применяются миграции.
func setupStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (*storage, error) {
	switch cfg.StorageDriver {
	case "postgres":
		log.Info("Using PostgreSQL storage", zap.String("dsn", cfg.MaskedDSN()))
		if err := database.ApplyMigrations(cfg.GetDSN(), log); err != nil {
			return nil, err
		}
		pool, err := database.NewPool(ctx, cfg.GetDSN(), cfg.DBMaxConns)
		if err != nil {
			return nil, err
		}
		repo := repository.NewPostgresRepository(pool, log)
		return &storage{users: repo, shared: repo, close: pool.Close}, nil
	default:
		log.Info("Using JSON file storage", zap.String("path", cfg.DataFilePath))
		repo, err := repository.NewFileRepository(cfg.DataFilePath, log)
		if err != nil {
			return nil, err
		}
		return &storage{users: repo, shared: repo, close: func() {}}, nil
	}
}

// setupRedis подключается к Redis, если задан REDIS_URL. Без URL возвращает nil.
func setupRedis(ctx context.Context, cfg *config.Config, log *zap.Logger) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		log.Info("REDIS_URL not set, preferences and rate limits are kept in memory")
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("unable to ping redis: %w", err)
	}
	log.Info("Connected to Redis", zap.String("address", opts.Addr), zap.Int("db", opts.DB))
	return client, nil
}

func preferenceStore(client *redis.Client, log *zap.Logger) preferences.Store {
	if client == nil {
		return preferences.NewMemoryStore(log)
	}
	return preferences.NewRedisStore(client, log)
}

// setupEvents подключает RabbitMQ, если задан RABBITMQ_URL.
func setupEvents(cfg *config.Config, log *zap.Logger) (messaging.StoryEventPublisher, func(), error) {
	if cfg.RabbitMQURL == "" {
		log.Info("RABBITMQ_URL not set, story events are not published")
		return messaging.NoopPublisher{}, func() {}, nil
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}
	publisher, err := messaging.NewRabbitMQPublisher(ch, cfg.StoryEventsQueue, log)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, err
	}
	log.Info("Connected to RabbitMQ", zap.String("queue", cfg.StoryEventsQueue))
	return publisher, func() {
		_ = ch.Close()
		_ = conn.Close()
	}, nil
}
