package repository

import (
	"context"

	"story-server/internal/models"
)

// UserRepository хранит агрегаты пользователей целиком (персонажи и истории внутри).
type UserRepository interface {
	// GetUser возвращает models.ErrNotFound, если пользователя нет.
	GetUser(ctx context.Context, email string) (*models.User, error)
	// SaveUser создает или полностью перезаписывает пользователя.
	SaveUser(ctx context.Context, user *models.User) error
	GetAllUsers(ctx context.Context) ([]*models.User, error)
}

// SharedStoryRepository хранит опубликованные снимки историй.
type SharedStoryRepository interface {
	// GetSharedStory возвращает models.ErrNotFound, если снимка нет.
	GetSharedStory(ctx context.Context, id string) (*models.SharedStory, error)
	SaveSharedStory(ctx context.Context, shared *models.SharedStory) error
}
