package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ChatCompletionConfig - параметры OpenAI-совместимого провайдера (DeepSeek).
type ChatCompletionConfig struct {
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// openAIClient реализует AIClient поверх go-openai. Ключ читается при каждом вызове,
// клиент пересоздается только при смене ключа.
type openAIClient struct {
	cfg    ChatCompletionConfig
	apiKey func() string
	logger *zap.Logger

	mu        sync.Mutex
	client    *openaigo.Client
	clientKey string
}

// NewChatCompletionClient создает адаптер chat-completion провайдера.
func NewChatCompletionClient(cfg ChatCompletionConfig, apiKey func() string, logger *zap.Logger) AIClient {
	return &openAIClient{
		cfg:    cfg,
		apiKey: apiKey,
		logger: logger.Named("ChatCompletionClient"),
	}
}

func (c *openAIClient) getClient() (*openaigo.Client, error) {
	key := c.apiKey()
	if key == "" {
		return nil, fmt.Errorf("%w: API key for %s is not set", ErrAIConfiguration, c.cfg.BaseURL)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil || c.clientKey != key {
		clientConfig := openaigo.DefaultConfig(key)
		clientConfig.BaseURL = c.cfg.BaseURL
		clientConfig.HTTPClient = &http.Client{Timeout: c.cfg.Timeout}
		c.client = openaigo.NewClientWithConfig(clientConfig)
		c.clientKey = key
	}
	return c.client, nil
}

// Generate отправляет сообщения как есть, с их ролями.
func (c *openAIClient) Generate(ctx context.Context, messages []Message) (string, UsageInfo, error) {
	usage := UsageInfo{}
	client, err := c.getClient()
	if err != nil {
		return "", usage, err
	}

	chatMessages := make([]openaigo.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		chatMessages = append(chatMessages, openaigo.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	c.logger.Debug("Sending chat completion request",
		zap.String("model", c.cfg.Model),
		zap.Int("messages", len(chatMessages)),
	)

	resp, err := client.CreateChatCompletion(ctx, openaigo.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    chatMessages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return "", usage, fmt.Errorf("%w: %w", ErrAIGenerationFailed, err)
	}

	if len(resp.Choices) == 0 {
		return "", usage, fmt.Errorf("%w: response has no choices", ErrAIGenerationFailed)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", usage, fmt.Errorf("%w: empty response", ErrAIGenerationFailed)
	}

	usage.PromptTokens = resp.Usage.PromptTokens
	usage.CompletionTokens = resp.Usage.CompletionTokens
	return text, usage, nil
}
