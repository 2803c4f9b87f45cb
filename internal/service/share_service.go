package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"story-server/internal/messaging"
	"story-server/internal/models"
	"story-server/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ShareService публикует снимки историй.
type ShareService struct {
	*base
	shared repository.SharedStoryRepository
	logger *zap.Logger
}

// Shared - результат поиска: снимок либо живая история.
type Shared struct {
	Snapshot *models.SharedStory
	Story    *models.Story
}

// Share сохраняет глубокую копию истории под новым id.
func (s *ShareService) Share(ctx context.Context, email, characterID, storyID, authorName string) (*models.SharedStory, error) {
	user, err := s.loadUser(ctx, email)
	if err != nil {
		return nil, err
	}
	_, story, err := locate(user, characterID, storyID)
	if err != nil {
		return nil, err
	}

	authorName = strings.TrimSpace(authorName)
	if authorName == "" {
		authorName = email
	}
	shared := &models.SharedStory{
		ID:         uuid.NewString(),
		Story:      story.Clone(),
		AuthorName: authorName,
		CreatedAt:  s.now(),
	}
	if err := s.shared.SaveSharedStory(ctx, shared); err != nil {
		return nil, fmt.Errorf("failed to save shared story: %w", err)
	}

	s.logger.Info("Story shared", zap.String("story_id", storyID), zap.String("shared_id", shared.ID))
	s.publish(ctx, messaging.StoryEvent{
		Type:        messaging.EventStoryShared,
		Email:       email,
		CharacterID: characterID,
		StoryID:     storyID,
		SharedID:    shared.ID,
	})
	return shared, nil
}

// Get ищет снимок, а если его нет, живую историю с таким id у любого пользователя.
func (s *ShareService) Get(ctx context.Context, id string) (*Shared, error) {
	snapshot, err := s.shared.GetSharedStory(ctx, id)
	if err == nil {
		return &Shared{Snapshot: snapshot}, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to load shared story: %w", err)
	}

	users, err := s.users.GetAllUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan users: %w", err)
	}
	for _, user := range users {
		for i := range user.Characters {
			if story := user.Characters[i].FindStory(id); story != nil {
				found := story.Clone()
				s.logger.Debug("Shared lookup fell back to live story", zap.String("story_id", id))
				return &Shared{Story: &found}, nil
			}
		}
	}
	return nil, models.ErrSharedStoryNotFound
}
