// Package preferences хранит предпочтения повествования по пользователям.
package preferences

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"story-server/internal/models"

	"go.uber.org/zap"
)

// Store - хранилище предпочтений, разделенное по email пользователя.
// Пользователь без сохраненных значений видит набор по умолчанию.
type Store interface {
	List(ctx context.Context, email string) ([]models.UserPreference, error)
	Set(ctx context.Context, email, name, value string) ([]models.UserPreference, error)
	// SetMany записывает все значения разом: либо применяются все, либо ни одно.
	SetMany(ctx context.Context, email string, values map[string]string) ([]models.UserPreference, error)
}

// mergeDefaults накладывает сохраненные значения на набор по умолчанию.
// Неизвестные имена добавляются в конец в алфавитном порядке.
func mergeDefaults(stored map[string]string) []models.UserPreference {
	prefs := models.DefaultPreferences()
	seen := make(map[string]bool, len(prefs))
	for i := range prefs {
		seen[prefs[i].Name] = true
		if v, ok := stored[prefs[i].Name]; ok {
			prefs[i].Value = v
		}
	}

	var extra []string
	for name := range stored {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		prefs = append(prefs, models.UserPreference{
			ID:    strconv.Itoa(len(prefs) + 1),
			Name:  name,
			Value: stored[name],
		})
	}
	return prefs
}

// MemoryStore - потокобезопасная реализация в памяти процесса.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]map[string]string
	logger *zap.Logger
}

// NewMemoryStore создает пустое хранилище.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		data:   make(map[string]map[string]string),
		logger: logger.Named("MemoryPreferenceStore"),
	}
}

var _ Store = (*MemoryStore)(nil)

// List возвращает предпочтения пользователя.
func (s *MemoryStore) List(_ context.Context, email string) ([]models.UserPreference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return mergeDefaults(s.data[email]), nil
}

// Set сохраняет значение и возвращает обновленный набор.
func (s *MemoryStore) Set(_ context.Context, email, name, value string) ([]models.UserPreference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userPrefs, ok := s.data[email]
	if !ok {
		userPrefs = make(map[string]string)
		s.data[email] = userPrefs
	}
	userPrefs[name] = value
	s.logger.Debug("Preference updated", zap.String("email", email), zap.String("name", name))
	return mergeDefaults(userPrefs), nil
}

// SetMany сохраняет несколько значений под одной блокировкой.
func (s *MemoryStore) SetMany(_ context.Context, email string, values map[string]string) ([]models.UserPreference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userPrefs, ok := s.data[email]
	if !ok {
		userPrefs = make(map[string]string, len(values))
		s.data[email] = userPrefs
	}
	for name, value := range values {
		userPrefs[name] = value
	}
	s.logger.Debug("Preferences updated", zap.String("email", email), zap.Int("count", len(values)))
	return mergeDefaults(userPrefs), nil
}
