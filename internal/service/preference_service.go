package service

import (
	"context"
	"fmt"
	"strings"

	"story-server/internal/models"
	"story-server/internal/prompts"

	"go.uber.org/zap"
)

// PreferenceService - предпочтения пользователя и их подстройка по отзывам.
type PreferenceService struct {
	*base
	logger *zap.Logger
}

// FeedbackResult - итог анализа отзыва.
type FeedbackResult struct {
	Preferences []models.UserPreference
	Applied     []prompts.PreferenceDelta
	Rejected    []string
	NoChange    bool
}

// Get возвращает предпочтения пользователя (по умолчанию, если ничего не задано).
func (s *PreferenceService) Get(ctx context.Context, email string) ([]models.UserPreference, error) {
	prefs, err := s.prefs.List(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	return prefs, nil
}

// Set задает одно предпочтение. Допускается любое имя.
func (s *PreferenceService) Set(ctx context.Context, email, name, value string) ([]models.UserPreference, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: preferenceName is required", models.ErrInvalidInput)
	}
	prefs, err := s.prefs.Set(ctx, email, name, value)
	if err != nil {
		return nil, fmt.Errorf("failed to save preference: %w", err)
	}
	s.logger.Info("Preference updated", zap.String("email", email), zap.String("name", name))
	return prefs, nil
}

// AnalyzeFeedback просит модель вывести изменения предпочтений из отзыва и применяет
// известные имена. Нераспознанный ответ оставляет предпочтения без изменений.
func (s *PreferenceService) AnalyzeFeedback(ctx context.Context, email, storyID, feedback string, rating int) (*FeedbackResult, error) {
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return nil, fmt.Errorf("%w: feedback is required", models.ErrInvalidInput)
	}

	user, err := s.loadUser(ctx, email)
	if err != nil {
		return nil, err
	}
	current, err := s.Get(ctx, email)
	if err != nil {
		return nil, err
	}

	prompt := prompts.BuildFeedbackAnalysis(feedback, rating, current)
	gen, err := s.generate(ctx, user, prompt.Messages())
	if err != nil {
		s.logger.Error("Feedback analysis failed", zap.String("email", email), zap.String("story_id", storyID), zap.Error(err))
		return nil, err
	}

	deltas := prompts.ParsePreferenceDeltas(gen.Text, models.IsKnownPreference)
	if len(deltas.Rejected) > 0 {
		s.logger.Debug("Rejected feedback lines", zap.String("story_id", storyID), zap.Strings("lines", deltas.Rejected))
	}
	if len(deltas.Updates) == 0 && !deltas.NoChange {
		s.logger.Warn("Feedback analysis produced no usable changes",
			zap.String("email", email),
			zap.String("story_id", storyID),
			zap.String("provider", string(gen.Provider)),
		)
		return nil, models.ErrFeedbackUnparseable
	}

	result := &FeedbackResult{
		Preferences: current,
		Applied:     deltas.Updates,
		Rejected:    deltas.Rejected,
		NoChange:    deltas.NoChange,
	}
	if len(deltas.Updates) > 0 {
		values := make(map[string]string, len(deltas.Updates))
		for _, d := range deltas.Updates {
			values[d.Name] = d.Value
		}
		prefs, err := s.prefs.SetMany(ctx, email, values)
		if err != nil {
			return nil, fmt.Errorf("failed to apply preferences: %w", err)
		}
		result.Preferences = prefs
	}

	s.logger.Info("Feedback processed",
		zap.String("email", email),
		zap.String("story_id", storyID),
		zap.Int("applied", len(deltas.Updates)),
		zap.Bool("no_change", deltas.NoChange),
	)
	return result, nil
}
