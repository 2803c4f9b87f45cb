package service

import (
	"context"
	"fmt"
	"strings"

	"story-server/internal/messaging"
	"story-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CharacterService - создание и удаление персонажей.
type CharacterService struct {
	*base
	limit  int
	logger *zap.Logger
}

// Create добавляет персонажа. attributes - строка атрибутов через пробелы.
func (s *CharacterService) Create(ctx context.Context, email, name, attributes string) (*models.Character, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: character name is required", models.ErrInvalidInput)
	}

	unlock := s.locks.Lock(email)
	defer unlock()

	user, err := s.loadUser(ctx, email)
	if err != nil {
		return nil, err
	}
	if len(user.Characters) >= s.limit {
		s.logger.Info("Character limit reached", zap.String("email", email), zap.Int("limit", s.limit))
		return nil, fmt.Errorf("%w: at most %d characters are allowed", models.ErrCharacterLimitReached, s.limit)
	}

	character := models.Character{
		ID:         uuid.NewString(),
		Name:       name,
		Attributes: strings.Fields(attributes),
		CreatedAt:  s.now(),
		Stories:    []models.Story{},
	}
	if character.Attributes == nil {
		character.Attributes = []string{}
	}

	updated := user.Clone()
	updated.Characters = append(updated.Characters, character)
	if err := s.users.SaveUser(ctx, updated); err != nil {
		return nil, fmt.Errorf("failed to save character: %w", err)
	}

	s.logger.Info("Character created",
		zap.String("email", email),
		zap.String("character_id", character.ID),
		zap.Int("attributes", len(character.Attributes)),
	)
	return &character, nil
}

// Delete удаляет персонажа вместе с его историями.
func (s *CharacterService) Delete(ctx context.Context, email, characterID string) error {
	unlock := s.locks.Lock(email)
	defer unlock()

	user, err := s.loadUser(ctx, email)
	if err != nil {
		return err
	}

	updated := user.Clone()
	character := updated.FindCharacter(characterID)
	if character == nil {
		return models.ErrCharacterNotFound
	}
	stories := len(character.Stories)
	updated.RemoveCharacter(characterID)

	if err := s.users.SaveUser(ctx, updated); err != nil {
		return fmt.Errorf("failed to delete character: %w", err)
	}

	s.logger.Info("Character deleted",
		zap.String("email", email),
		zap.String("character_id", characterID),
		zap.Int("stories_removed", stories),
	)
	s.publish(ctx, messaging.StoryEvent{
		Type:        messaging.EventCharacterDeleted,
		Email:       email,
		CharacterID: characterID,
		Entries:     stories,
	})
	return nil
}
