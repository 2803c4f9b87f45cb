package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"story-server/internal/ai"
	"story-server/internal/messaging"
	"story-server/internal/models"
	"story-server/internal/preferences"
	"story-server/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Generator - граница генерации текста (реализуется ai.Dispatcher).
type Generator interface {
	Generate(ctx context.Context, sel *ai.Selector, messages []ai.Message) (ai.Generation, error)
}

var _ Generator = (*ai.Dispatcher)(nil)

// DefaultCharacterLimit - лимит персонажей, если в конфиге не задан другой.
const DefaultCharacterLimit = 2

// Deps - зависимости сервисного слоя.
type Deps struct {
	Users          repository.UserRepository
	Shared         repository.SharedStoryRepository
	Generator      Generator
	Preferences    preferences.Store
	Events         messaging.StoryEventPublisher
	CharacterLimit int
	// DefaultProvider назначается новым пользователям и пользователям без настроек.
	DefaultProvider ai.Provider
	Logger          *zap.Logger
	// Now подменяется в тестах.
	Now func() time.Time
}

// Services объединяет сервисы, разделяющие блокировки пользователей.
type Services struct {
	Users       *UserService
	Characters  *CharacterService
	Stories     *StoryService
	Preferences *PreferenceService
	Sharing     *ShareService
}

// New собирает сервисный слой.
func New(d Deps) *Services {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Events == nil {
		d.Events = messaging.NoopPublisher{}
	}
	if d.CharacterLimit <= 0 {
		d.CharacterLimit = DefaultCharacterLimit
	}
	if provider, ok := ai.ParseProvider(string(d.DefaultProvider)); ok {
		d.DefaultProvider = provider
	} else {
		d.DefaultProvider = ai.DefaultProvider
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}

	b := &base{
		users:           d.Users,
		generator:       d.Generator,
		prefs:           d.Preferences,
		events:          d.Events,
		locks:           newKeyedMutex(),
		defaultProvider: d.DefaultProvider,
		now:             d.Now,
		logger:          d.Logger,
	}
	return &Services{
		Users:       &UserService{base: b, logger: d.Logger.Named("UserService")},
		Characters:  &CharacterService{base: b, limit: d.CharacterLimit, logger: d.Logger.Named("CharacterService")},
		Stories:     &StoryService{base: b, logger: d.Logger.Named("StoryService")},
		Preferences: &PreferenceService{base: b, logger: d.Logger.Named("PreferenceService")},
		Sharing:     &ShareService{base: b, shared: d.Shared, logger: d.Logger.Named("ShareService")},
	}
}

// base - общее состояние сервисов.
type base struct {
	users           repository.UserRepository
	generator       Generator
	prefs           preferences.Store
	events          messaging.StoryEventPublisher
	locks           *keyedMutex
	defaultProvider ai.Provider
	now             func() time.Time
	logger          *zap.Logger
}

// loadUser переводит промах хранилища в ErrUserNotFound.
func (b *base) loadUser(ctx context.Context, email string) (*models.User, error) {
	user, err := b.users.GetUser(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// locate проходит цепочку пользователь -> персонаж -> история.
// Пустой storyID означает, что история не нужна.
func locate(user *models.User, characterID, storyID string) (*models.Character, *models.Story, error) {
	character := user.FindCharacter(characterID)
	if character == nil {
		return nil, nil, models.ErrCharacterNotFound
	}
	if storyID == "" {
		return character, nil, nil
	}
	story := character.FindStory(storyID)
	if story == nil {
		return character, nil, models.ErrStoryNotFound
	}
	return character, story, nil
}

// selectorFor строит селектор провайдера из сохраненных настроек пользователя.
func (b *base) selectorFor(user *models.User) *ai.Selector {
	raw := string(b.defaultProvider)
	if user.APISettings != nil && user.APISettings.Provider != "" {
		raw = user.APISettings.Provider
	}
	return ai.NewSelector(raw, b.logger)
}

// preferencesFor не дает сбою хранилища предпочтений сорвать генерацию.
func (b *base) preferencesFor(ctx context.Context, email string) []models.UserPreference {
	prefs, err := b.prefs.List(ctx, email)
	if err != nil {
		b.logger.Warn("Failed to load preferences, using defaults", zap.String("email", email), zap.Error(err))
		return models.DefaultPreferences()
	}
	return prefs
}

// generate вызывает провайдера. Любой сбой генерации превращается в ErrAIUnavailable.
func (b *base) generate(ctx context.Context, user *models.User, messages []ai.Message) (ai.Generation, error) {
	gen, err := b.generator.Generate(ctx, b.selectorFor(user), messages)
	if err != nil {
		return ai.Generation{}, fmt.Errorf("%w: %w", models.ErrAIUnavailable, err)
	}
	return gen, nil
}

// advance возвращает текущее время, строго большее prev.
func (b *base) advance(prev time.Time) time.Time {
	now := b.now()
	if !now.After(prev) {
		now = prev.Add(time.Millisecond)
	}
	return now
}

// publish отправляет событие. Ошибка публикации только логируется.
func (b *base) publish(ctx context.Context, event messaging.StoryEvent) {
	event.ID = uuid.NewString()
	event.OccurredAt = b.now()
	if err := b.events.Publish(ctx, event); err != nil {
		b.logger.Warn("Failed to publish story event",
			zap.String("type", string(event.Type)),
			zap.String("email", event.Email),
			zap.Error(err),
		)
	}
}

// keyedMutex сериализует изменения одного пользователя.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock захватывает блокировку key и возвращает функцию освобождения.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// FormatStoryToText склеивает записи истории в текст для промта:
// текст AI как есть, выбор игрока как "[选择: ...]". Маркеры провайдеров убираются.
func FormatStoryToText(content []models.StoryContent) string {
	parts := make([]string, 0, len(content))
	for _, entry := range content {
		switch entry.Type {
		case models.ContentTypePlayerChoice:
			choice := entry.SelectedChoice
			if choice == "" {
				choice = entry.Text
			}
			parts = append(parts, fmt.Sprintf("[选择: %s]", choice))
		default:
			text := ai.StripProvenance(entry.Text)
			if text != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.Join(parts, "\n\n")
}

// CountWords считает иероглифы CJK по одному и прочие слова по пробелам.
func CountWords(text string) int {
	count := 0
	inWord := false
	for _, r := range ai.StripProvenance(text) {
		switch {
		case unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r) || unicode.Is(unicode.Hangul, r):
			count++
			inWord = false
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if !inWord {
				count++
				inWord = true
			}
		default:
			inWord = false
		}
	}
	return count
}

// validateEmail проверяет формат адреса.
func validateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return models.ErrInvalidEmail
	}
	return nil
}
