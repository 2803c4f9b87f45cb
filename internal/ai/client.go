package ai

import (
	"context"
	"errors"
	"strings"
)

// Role - роль сообщения в диалоге с моделью.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message - одно сообщение диалога в провайдер-независимом виде.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Provider - идентификатор бэкенда генерации.
type Provider string

const (
	ProviderDeepSeek Provider = "deepseek"
	ProviderGoogle   Provider = "google"

	DefaultProvider = ProviderDeepSeek
)

// ParseProvider приводит строку к Provider. Неизвестное значение превращается
// в провайдера по умолчанию, второй результат равен false.
func ParseProvider(raw string) (Provider, bool) {
	switch Provider(strings.ToLower(strings.TrimSpace(raw))) {
	case ProviderDeepSeek:
		return ProviderDeepSeek, true
	case ProviderGoogle:
		return ProviderGoogle, true
	default:
		return DefaultProvider, false
	}
}

// ErrAIGenerationFailed - ошибка при генерации текста AI
var ErrAIGenerationFailed = errors.New("AI text generation failed")

// ErrAIConfiguration - провайдер не настроен (например, нет ключа API).
var ErrAIConfiguration = errors.New("AI provider is not configured")

// UsageInfo содержит информацию об использовании токенов
type UsageInfo struct {
	PromptTokens     int
	CompletionTokens int
}

// AIClient - адаптер одного провайдера. Возвращает обрезанный текст ответа.
type AIClient interface {
	Generate(ctx context.Context, messages []Message) (string, UsageInfo, error)
}

// Generation - результат диспетчеризации.
type Generation struct {
	Text     string
	Provider Provider
}
