package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"story-server/internal/ai"
	"story-server/internal/messaging"
	"story-server/internal/models"
	"story-server/internal/prompts"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	MinKeywords = 2
	MaxKeywords = 10
)

// StoryService ведет состояние повествования: создание, варианты, продолжение, удаление.
// Изменения выполняются над копией пользователя и сохраняются только после успешной генерации.
type StoryService struct {
	*base
	logger *zap.Logger
}

// CreateStoryInput - параметры новой истории.
type CreateStoryInput struct {
	Email       string
	CharacterID string
	Keywords    []string
}

// OptionsInput - параметры запроса вариантов продолжения.
type OptionsInput struct {
	Email        string
	CharacterID  string
	StoryID      string
	StoryContent []models.StoryContent
}

// ContinueInput - параметры продолжения истории.
type ContinueInput struct {
	Email        string
	CharacterID  string
	StoryID      string
	StoryContent []models.StoryContent
	Choice       string
	WordCount    int
}

func cleanKeywords(keywords []string) []string {
	cleaned := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			cleaned = append(cleaned, k)
		}
	}
	return cleaned
}

func protagonist(c *models.Character) prompts.Protagonist {
	return prompts.Protagonist{Name: c.Name, Attributes: c.Attributes}
}

// storyText выбирает содержимое для промта: присланное клиентом или сохраненное.
func storyText(requested, stored []models.StoryContent) string {
	if len(requested) > 0 {
		return FormatStoryToText(requested)
	}
	return FormatStoryToText(stored)
}

// CreateStory генерирует начало истории и добавляет ее персонажу.
func (s *StoryService) CreateStory(ctx context.Context, in CreateStoryInput) (*models.Story, error) {
	keywords := cleanKeywords(in.Keywords)
	if len(keywords) < MinKeywords || len(keywords) > MaxKeywords {
		return nil, fmt.Errorf("%w: keywords must contain between %d and %d entries", models.ErrInvalidInput, MinKeywords, MaxKeywords)
	}

	unlock := s.locks.Lock(in.Email)
	defer unlock()

	user, err := s.loadUser(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	updated := user.Clone()
	character, _, err := locate(updated, in.CharacterID, "")
	if err != nil {
		return nil, err
	}

	prompt := prompts.BuildBeginning(keywords, protagonist(character), s.preferencesFor(ctx, in.Email))
	start := time.Now()
	gen, err := s.generate(ctx, updated, prompt.Messages())
	if err != nil {
		s.logger.Error("Story beginning generation failed",
			zap.String("email", in.Email),
			zap.String("character_id", in.CharacterID),
			zap.Error(err),
		)
		return nil, err
	}
	s.logGenerated("beginning", gen, prompts.BeginningWordTarget, time.Since(start))

	now := s.now()
	wordCount := prompts.BeginningWordTarget
	story := models.Story{
		ID:        uuid.NewString(),
		Title:     models.StoryTitle(keywords),
		Keywords:  keywords,
		CreatedAt: now,
		UpdatedAt: now,
		Content: []models.StoryContent{{
			ID:        uuid.NewString(),
			Type:      models.ContentTypeAI,
			Text:      gen.Text,
			Timestamp: now,
			WordCount: &wordCount,
		}},
	}
	character.Stories = append(character.Stories, story)

	if err := s.users.SaveUser(ctx, updated); err != nil {
		return nil, fmt.Errorf("failed to save story: %w", err)
	}
	s.logger.Info("Story created",
		zap.String("email", in.Email),
		zap.String("story_id", story.ID),
		zap.String("provider", string(gen.Provider)),
	)
	s.publish(ctx, messaging.StoryEvent{
		Type:        messaging.EventStoryCreated,
		Email:       in.Email,
		CharacterID: in.CharacterID,
		StoryID:     story.ID,
		Provider:    string(gen.Provider),
		Entries:     len(story.Content),
	})

	result := story.Clone()
	return &result, nil
}

// GenerateOptions предлагает варианты продолжения. Состояние истории не меняется.
func (s *StoryService) GenerateOptions(ctx context.Context, in OptionsInput) ([]string, error) {
	user, err := s.loadUser(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	character, story, err := locate(user, in.CharacterID, in.StoryID)
	if err != nil {
		return nil, err
	}

	text := storyText(in.StoryContent, story.Content)
	if text == "" {
		return nil, fmt.Errorf("%w: story content is empty", models.ErrInvalidInput)
	}

	prompt := prompts.BuildOptions(text, protagonist(character), s.preferencesFor(ctx, in.Email))
	gen, err := s.generate(ctx, user, prompt.Messages())
	if err != nil {
		s.logger.Error("Options generation failed", zap.String("story_id", in.StoryID), zap.Error(err))
		return nil, err
	}

	parsed := prompts.ParseOptions(ai.StripProvenance(gen.Text), prompts.OptionsCount)
	if len(parsed.Rejected) > 0 {
		s.logger.Debug("Rejected option lines", zap.String("story_id", in.StoryID), zap.Strings("lines", parsed.Rejected))
	}
	if len(parsed.Options) == 0 {
		s.logger.Warn("Model returned no usable options", zap.String("story_id", in.StoryID), zap.String("provider", string(gen.Provider)))
		return nil, fmt.Errorf("%w: model returned no usable options", models.ErrAIUnavailable)
	}
	if len(parsed.Options) < prompts.OptionsCount {
		s.logger.Info("Model returned fewer options than requested",
			zap.String("story_id", in.StoryID),
			zap.Int("options", len(parsed.Options)),
		)
	}
	return parsed.Options, nil
}

// ContinueStory добавляет выбор игрока и следующий фрагмент AI.
func (s *StoryService) ContinueStory(ctx context.Context, in ContinueInput) (*models.Story, error) {
	choice := strings.TrimSpace(in.Choice)
	if choice == "" {
		return nil, fmt.Errorf("%w: choice is required", models.ErrInvalidInput)
	}
	if in.WordCount <= 0 {
		return nil, fmt.Errorf("%w: wordCount must be positive", models.ErrInvalidInput)
	}

	unlock := s.locks.Lock(in.Email)
	defer unlock()

	user, err := s.loadUser(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	updated := user.Clone()
	character, story, err := locate(updated, in.CharacterID, in.StoryID)
	if err != nil {
		return nil, err
	}

	text := storyText(in.StoryContent, story.Content)
	prompt := prompts.BuildContinuation(text, choice, in.WordCount, protagonist(character), s.preferencesFor(ctx, in.Email))
	start := time.Now()
	gen, err := s.generate(ctx, updated, prompt.Messages())
	if err != nil {
		s.logger.Error("Story continuation failed",
			zap.String("email", in.Email),
			zap.String("story_id", in.StoryID),
			zap.Error(err),
		)
		return nil, err
	}
	s.logGenerated("continuation", gen, in.WordCount, time.Since(start))

	now := s.advance(story.UpdatedAt)
	wordCount := in.WordCount
	story.Content = append(story.Content,
		models.StoryContent{
			ID:             uuid.NewString(),
			Type:           models.ContentTypePlayerChoice,
			Text:           choice,
			Timestamp:      now,
			SelectedChoice: choice,
		},
		models.StoryContent{
			ID:        uuid.NewString(),
			Type:      models.ContentTypeAI,
			Text:      gen.Text,
			Timestamp: now,
			WordCount: &wordCount,
		},
	)
	story.UpdatedAt = now

	if err := s.users.SaveUser(ctx, updated); err != nil {
		return nil, fmt.Errorf("failed to save story: %w", err)
	}
	s.logger.Info("Story continued",
		zap.String("email", in.Email),
		zap.String("story_id", story.ID),
		zap.Int("entries", len(story.Content)),
	)
	s.publish(ctx, messaging.StoryEvent{
		Type:        messaging.EventStoryContinued,
		Email:       in.Email,
		CharacterID: in.CharacterID,
		StoryID:     story.ID,
		Provider:    string(gen.Provider),
		Entries:     len(story.Content),
	})

	result := story.Clone()
	return &result, nil
}

// DeleteStory удаляет историю. Опубликованные снимки остаются.
func (s *StoryService) DeleteStory(ctx context.Context, email, characterID, storyID string) error {
	unlock := s.locks.Lock(email)
	defer unlock()

	user, err := s.loadUser(ctx, email)
	if err != nil {
		return err
	}
	updated := user.Clone()
	character, _, err := locate(updated, characterID, storyID)
	if err != nil {
		return err
	}
	character.RemoveStory(storyID)

	if err := s.users.SaveUser(ctx, updated); err != nil {
		return fmt.Errorf("failed to delete story: %w", err)
	}
	s.logger.Info("Story deleted", zap.String("email", email), zap.String("story_id", storyID))
	s.publish(ctx, messaging.StoryEvent{
		Type:        messaging.EventStoryDeleted,
		Email:       email,
		CharacterID: characterID,
		StoryID:     storyID,
	})
	return nil
}

func (s *StoryService) logGenerated(kind string, gen ai.Generation, target int, elapsed time.Duration) {
	s.logger.Info("Story segment generated",
		zap.String("kind", kind),
		zap.String("provider", string(gen.Provider)),
		zap.Int("words", CountWords(gen.Text)),
		zap.Int("target_words", target),
		zap.Duration("elapsed", elapsed),
	)
}
