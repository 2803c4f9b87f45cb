package ai

import (
	"story-server/internal/config"

	"go.uber.org/zap"
)

// NewProviderDispatcher регистрирует оба провайдера по конфигурации.
// Ключи API читаются из секретов при каждом вызове.
func NewProviderDispatcher(cfg config.AIConfig, logger *zap.Logger) *Dispatcher {
	clients := map[Provider]AIClient{
		ProviderDeepSeek: NewChatCompletionClient(ChatCompletionConfig{
			BaseURL:     cfg.DeepSeekBaseURL,
			Model:       cfg.DeepSeekModel,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     cfg.Timeout,
		}, config.SecretSource(config.DeepSeekAPIKeySecret), logger),
		ProviderGoogle: NewGenerativeContentClient(GenerativeContentConfig{
			Model:       cfg.GeminiModel,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		}, config.SecretSource(config.GoogleAPIKeySecret), logger),
	}
	return NewDispatcher(clients, DispatcherConfig{
		Timeout:           cfg.Timeout,
		MaxAttempts:       cfg.MaxAttempts,
		BaseRetryDelay:    cfg.BaseRetryDelay,
		ProvenanceMarkers: cfg.ProvenanceMarkers,
	}, logger)
}
