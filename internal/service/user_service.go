package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"story-server/internal/ai"
	"story-server/internal/models"

	"go.uber.org/zap"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// UserService - вход по email и настройки провайдера.
type UserService struct {
	*base
	logger *zap.Logger
}

// Login возвращает пользователя, создавая его при первом входе.
func (s *UserService) Login(ctx context.Context, email string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(email)
	defer unlock()

	user, err := s.users.GetUser(ctx, email)
	if err == nil {
		s.logger.Info("User logged in", zap.String("email", email))
		return user, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	user = &models.User{
		Email:       email,
		Characters:  []models.Character{},
		APISettings: &models.APISettings{Provider: string(s.defaultProvider)},
	}
	if err := s.users.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save new user: %w", err)
	}
	s.logger.Info("New user created", zap.String("email", email))
	return user, nil
}

// UpdateSettings сохраняет провайдера пользователя. Недопустимое значение заменяется
// провайдером по умолчанию, coerced сообщает об этом.
func (s *UserService) UpdateSettings(ctx context.Context, email, provider string) (saved ai.Provider, coerced bool, err error) {
	unlock := s.locks.Lock(email)
	defer unlock()

	user, err := s.loadUser(ctx, email)
	if err != nil {
		return "", false, err
	}

	saved, ok := ai.ParseProvider(provider)
	if !ok {
		s.logger.Warn("Invalid provider in settings, using default",
			zap.String("email", email),
			zap.String("requested", provider),
			zap.String("provider", string(saved)),
		)
	}

	updated := user.Clone()
	updated.APISettings = &models.APISettings{Provider: string(saved)}
	if err := s.users.SaveUser(ctx, updated); err != nil {
		return "", false, fmt.Errorf("failed to save settings: %w", err)
	}
	s.logger.Info("API settings updated", zap.String("email", email), zap.String("provider", string(saved)))
	return saved, !ok, nil
}
