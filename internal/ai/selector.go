package ai

import (
	"sync"

	"go.uber.org/zap"
)

// Selector хранит активного провайдера в рамках одного запроса или сессии.
// Глобального селектора нет: каждая операция создает свой из настроек пользователя.
type Selector struct {
	mu      sync.RWMutex
	current Provider
	logger  *zap.Logger
}

// NewSelector создает селектор с начальным значением raw (с приведением к допустимому).
func NewSelector(raw string, logger *zap.Logger) *Selector {
	s := &Selector{current: DefaultProvider, logger: logger}
	if raw != "" {
		s.Set(raw)
	}
	return s
}

// Set переключает провайдера. Недопустимое значение не является ошибкой:
// оно заменяется провайдером по умолчанию с предупреждением в лог.
func (s *Selector) Set(raw string) Provider {
	provider, ok := ParseProvider(raw)
	if !ok && s.logger != nil {
		s.logger.Warn("Unknown AI provider, falling back to default",
			zap.String("requested", raw),
			zap.String("provider", string(provider)),
		)
	}

	s.mu.Lock()
	s.current = provider
	s.mu.Unlock()
	return provider
}

// Get возвращает активного провайдера.
func (s *Selector) Get() Provider {
	if s == nil {
		return DefaultProvider
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}
