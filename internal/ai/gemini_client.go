package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const (
	geminiRoleUser  = "user"
	geminiRoleModel = "model"

	// Вставляется первым ходом, если разговор не начинается с пользователя.
	geminiPlaceholderTurn = "请继续。"
)

// GenerativeContentConfig - параметры провайдера Gemini.
type GenerativeContentConfig struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// geminiSendFunc отправляет историю и последний ход в Gemini.
type geminiSendFunc func(ctx context.Context, apiKey string, history []*genai.Content, last *genai.Content) (*genai.GenerateContentResponse, error)

// geminiClient реализует AIClient поверх generative-ai-go.
type geminiClient struct {
	cfg    GenerativeContentConfig
	apiKey func() string
	send   geminiSendFunc
	logger *zap.Logger
}

// NewGenerativeContentClient создает адаптер Gemini.
func NewGenerativeContentClient(cfg GenerativeContentConfig, apiKey func() string, logger *zap.Logger) AIClient {
	c := &geminiClient{
		cfg:    cfg,
		apiKey: apiKey,
		logger: logger.Named("GenerativeContentClient"),
	}
	c.send = c.sendGenai
	return c
}

// sendGenai открывает клиента на ключе текущего вызова и отправляет разговор через чат-сессию.
func (c *geminiClient) sendGenai(ctx context.Context, apiKey string, history []*genai.Content, last *genai.Content) (*genai.GenerateContentResponse, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(c.cfg.Model)
	model.SetTemperature(c.cfg.Temperature)
	model.SetMaxOutputTokens(int32(c.cfg.MaxTokens))

	chat := model.StartChat()
	chat.History = history
	return chat.SendMessage(ctx, last.Parts...)
}

// Generate переводит сообщения в формат Gemini и возвращает текст первого кандидата.
func (c *geminiClient) Generate(ctx context.Context, messages []Message) (string, UsageInfo, error) {
	usage := UsageInfo{}
	key := c.apiKey()
	if key == "" {
		return "", usage, fmt.Errorf("%w: Google API key is not set", ErrAIConfiguration)
	}

	contents := toGeminiContents(messages)
	history, last := contents[:len(contents)-1], contents[len(contents)-1]

	c.logger.Debug("Sending generate content request",
		zap.String("model", c.cfg.Model),
		zap.Int("turns", len(contents)),
	)

	resp, err := c.send(ctx, key, history, last)
	if err != nil {
		return "", usage, fmt.Errorf("%w: %w", ErrAIGenerationFailed, err)
	}

	text := geminiText(resp)
	if text == "" {
		return "", usage, fmt.Errorf("%w: empty response", ErrAIGenerationFailed)
	}
	if resp.UsageMetadata != nil {
		usage.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return text, usage, nil
}

// toGeminiContents приводит диалог к форме Gemini:
// ведущие system-сообщения склеиваются и добавляются в начало первого не-system сообщения,
// assistant становится model, все остальное - user,
// первый и последний ходы всегда пользовательские. Результат никогда не пуст.
func toGeminiContents(messages []Message) []*genai.Content {
	var systemParts []string
	i := 0
	for ; i < len(messages) && messages[i].Role == RoleSystem; i++ {
		systemParts = append(systemParts, messages[i].Content)
	}
	systemText := strings.Join(systemParts, "\n\n")
	rest := messages[i:]

	contents := make([]*genai.Content, 0, len(rest)+1)
	for j, m := range rest {
		text := m.Content
		if j == 0 && systemText != "" {
			text = systemText + "\n\n" + text
		}
		contents = append(contents, &genai.Content{
			Role:  geminiRole(m.Role),
			Parts: []genai.Part{genai.Text(text)},
		})
	}

	// Только system-сообщения: инструкции становятся единственным пользовательским ходом
	if len(contents) == 0 {
		text := systemText
		if text == "" {
			text = geminiPlaceholderTurn
		}
		return []*genai.Content{{Role: geminiRoleUser, Parts: []genai.Part{genai.Text(text)}}}
	}

	if contents[0].Role != geminiRoleUser {
		placeholder := &genai.Content{Role: geminiRoleUser, Parts: []genai.Part{genai.Text(geminiPlaceholderTurn)}}
		contents = append([]*genai.Content{placeholder}, contents...)
	}
	// Последний ход отправляется как новое сообщение и должен быть пользовательским
	if contents[len(contents)-1].Role != geminiRoleUser {
		contents = append(contents, &genai.Content{Role: geminiRoleUser, Parts: []genai.Part{genai.Text(geminiPlaceholderTurn)}})
	}
	return contents
}

func geminiRole(role Role) string {
	if role == RoleAssistant {
		return geminiRoleModel
	}
	return geminiRoleUser
}

// geminiText склеивает текстовые части первого кандидата.
func geminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(sb.String())
}
