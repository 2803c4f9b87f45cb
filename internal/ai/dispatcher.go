package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Маркеры происхождения текста, добавляемые в конец ответа.
var provenanceMarkers = map[Provider]string{
	ProviderDeepSeek: "\n\n[由 DeepSeek 生成]",
	ProviderGoogle:   "\n\n[由 Google Gemini 生成]",
}

// ProvenanceMarker возвращает маркер провайдера.
func ProvenanceMarker(p Provider) string {
	return provenanceMarkers[p]
}

// StripProvenance удаляет маркеры происхождения из текста перед повторной подачей в промт.
func StripProvenance(text string) string {
	for _, marker := range provenanceMarkers {
		text = strings.ReplaceAll(text, marker, "")
		text = strings.ReplaceAll(text, strings.TrimSpace(marker), "")
	}
	return strings.TrimSpace(text)
}

// DispatcherConfig - политика вызова провайдеров.
type DispatcherConfig struct {
	Timeout           time.Duration
	MaxAttempts       int
	BaseRetryDelay    time.Duration
	ProvenanceMarkers bool
}

// Dispatcher выбирает адаптер по селектору и применяет таймаут, повторы и метрики.
type Dispatcher struct {
	clients        map[Provider]AIClient
	cfg            DispatcherConfig
	retry          retryPolicy
	estimateTokens func([]Message) int
	logger         *zap.Logger
}

// NewDispatcher создает диспетчер поверх зарегистрированных адаптеров.
func NewDispatcher(clients map[Provider]AIClient, cfg DispatcherConfig, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		clients:        clients,
		cfg:            cfg,
		retry:          retryPolicy{maxAttempts: cfg.MaxAttempts, baseDelay: cfg.BaseRetryDelay},
		estimateTokens: estimateTokens,
		logger:         logger.Named("AIDispatcher"),
	}
}

// Generate отправляет сообщения провайдеру, выбранному в sel.
// Любая ошибка оборачивает ErrAIGenerationFailed или ErrAIConfiguration.
func (d *Dispatcher) Generate(ctx context.Context, sel *Selector, messages []Message) (Generation, error) {
	provider := sel.Get()
	log := d.logger.With(zap.String("provider", string(provider)))

	client, ok := d.clients[provider]
	if !ok {
		return Generation{}, fmt.Errorf("%w: no client registered for provider %s", ErrAIConfiguration, provider)
	}
	if len(messages) == 0 {
		return Generation{}, fmt.Errorf("%w: no messages to send", ErrAIGenerationFailed)
	}

	var (
		text  string
		usage UsageInfo
	)
	err := d.retry.run(ctx, func(attempt int) error {
		attemptCtx := ctx
		if d.cfg.Timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, d.cfg.Timeout)
			defer cancel()
		}

		start := time.Now()
		var callErr error
		text, usage, callErr = client.Generate(attemptCtx, messages)
		duration := time.Since(start)
		aiRequestDuration.With(prometheus.Labels{"provider": string(provider)}).Observe(duration.Seconds())

		if callErr != nil {
			aiRequestsTotal.With(prometheus.Labels{"provider": string(provider), "status": "error"}).Inc()
			log.Warn("AI request failed",
				zap.Int("attempt", attempt),
				zap.Duration("duration", duration),
				zap.Bool("transient", isTransient(callErr)),
				zap.Error(callErr),
			)
			return callErr
		}
		aiRequestsTotal.With(prometheus.Labels{"provider": string(provider), "status": "success"}).Inc()
		log.Info("AI response received",
			zap.Int("attempt", attempt),
			zap.Duration("duration", duration),
			zap.Int("length", len([]rune(text))),
		)
		return nil
	})
	if err != nil {
		return Generation{}, err
	}

	promptTokens := usage.PromptTokens
	if promptTokens == 0 && d.estimateTokens != nil {
		promptTokens = d.estimateTokens(messages)
	}
	aiPromptTokens.With(prometheus.Labels{"provider": string(provider)}).Observe(float64(promptTokens))
	if usage.CompletionTokens > 0 {
		aiCompletionTokens.With(prometheus.Labels{"provider": string(provider)}).Observe(float64(usage.CompletionTokens))
	}

	if d.cfg.ProvenanceMarkers {
		text += ProvenanceMarker(provider)
	}
	return Generation{Text: text, Provider: provider}, nil
}
