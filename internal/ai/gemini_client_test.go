package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func contentText(c *genai.Content) string {
	var s string
	for _, p := range c.Parts {
		if t, ok := p.(genai.Text); ok {
			s += string(t)
		}
	}
	return s
}

func TestToGeminiContents_SystemPrependedToFirstMessage(t *testing.T) {
	contents := toGeminiContents([]Message{
		{Role: RoleSystem, Content: "S1"},
		{Role: RoleSystem, Content: "S2"},
		{Role: RoleUser, Content: "U1"},
		{Role: RoleAssistant, Content: "A1"},
		{Role: RoleUser, Content: "U2"},
	})

	require.Len(t, contents, 3)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "S1\n\nS2\n\nU1", contentText(contents[0]))
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, "A1", contentText(contents[1]))
	assert.Equal(t, "user", contents[2].Role)
	assert.Equal(t, "U2", contentText(contents[2]))
}

func TestToGeminiContents_InsertsUserPlaceholderBeforeModelTurn(t *testing.T) {
	contents := toGeminiContents([]Message{
		{Role: RoleAssistant, Content: "A1"},
		{Role: RoleUser, Content: "U1"},
	})

	require.Len(t, contents, 3)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, geminiPlaceholderTurn, contentText(contents[0]))
	assert.Equal(t, "model", contents[1].Role)
}

func TestToGeminiContents_SystemBeforeAssistantStillStartsWithUser(t *testing.T) {
	contents := toGeminiContents([]Message{
		{Role: RoleSystem, Content: "S"},
		{Role: RoleAssistant, Content: "A1"},
	})

	require.Len(t, contents, 3)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, "S\n\nA1", contentText(contents[1]))
	assert.Equal(t, "user", contents[2].Role)
}

func TestToGeminiContents_TrailingModelTurnGetsUserPlaceholder(t *testing.T) {
	contents := toGeminiContents([]Message{
		{Role: RoleSystem, Content: "S"},
		{Role: RoleUser, Content: "U1"},
		{Role: RoleAssistant, Content: "A1"},
	})

	require.Len(t, contents, 3)
	assert.Equal(t, "S\n\nU1", contentText(contents[0]))
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, "A1", contentText(contents[1]))
	assert.Equal(t, "user", contents[2].Role)
	assert.Equal(t, geminiPlaceholderTurn, contentText(contents[2]))
}

func TestToGeminiContents_OnlySystemOrEmpty(t *testing.T) {
	contents := toGeminiContents([]Message{{Role: RoleSystem, Content: "S"}})
	require.Len(t, contents, 1)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "S", contentText(contents[0]))

	contents = toGeminiContents(nil)
	require.Len(t, contents, 1)
	assert.Equal(t, geminiPlaceholderTurn, contentText(contents[0]))
}

func TestToGeminiContents_UnknownRolesBecomeUser(t *testing.T) {
	contents := toGeminiContents([]Message{{Role: Role("tool"), Content: "T"}})
	require.Len(t, contents, 1)
	assert.Equal(t, "user", contents[0].Role)
}

func TestGeminiClient_Generate(t *testing.T) {
	client := NewGenerativeContentClient(GenerativeContentConfig{Model: "gemini-test"}, func() string { return "key" }, zap.NewNop()).(*geminiClient)

	var gotHistory []*genai.Content
	var gotLast *genai.Content
	client.send = func(ctx context.Context, apiKey string, history []*genai.Content, last *genai.Content) (*genai.GenerateContentResponse, error) {
		assert.Equal(t, "key", apiKey)
		gotHistory, gotLast = history, last
		return &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Role: "model", Parts: []genai.Part{genai.Text("  第一段"), genai.Text("第二段  ")}},
			}},
			UsageMetadata: &genai.UsageMetadata{PromptTokenCount: 12, CandidatesTokenCount: 7},
		}, nil
	}

	text, usage, err := client.Generate(context.Background(), []Message{
		{Role: RoleSystem, Content: "S"},
		{Role: RoleUser, Content: "U1"},
		{Role: RoleAssistant, Content: "A1"},
		{Role: RoleUser, Content: "U2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "第一段第二段", text)
	assert.Equal(t, 12, usage.PromptTokens)
	assert.Equal(t, 7, usage.CompletionTokens)
	assert.Len(t, gotHistory, 2)
	assert.Equal(t, "U2", contentText(gotLast))
}

func TestGeminiClient_GenerateAfterAssistantTurn(t *testing.T) {
	client := NewGenerativeContentClient(GenerativeContentConfig{Model: "gemini-test"}, func() string { return "key" }, zap.NewNop()).(*geminiClient)

	var gotHistory []*genai.Content
	var gotLast *genai.Content
	client.send = func(ctx context.Context, apiKey string, history []*genai.Content, last *genai.Content) (*genai.GenerateContentResponse, error) {
		gotHistory, gotLast = history, last
		return &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{Content: &genai.Content{Role: "model", Parts: []genai.Part{genai.Text("继续")}}}},
		}, nil
	}

	_, _, err := client.Generate(context.Background(), []Message{
		{Role: RoleUser, Content: "U1"},
		{Role: RoleAssistant, Content: "A1"},
	})
	require.NoError(t, err)
	require.Len(t, gotHistory, 2)
	assert.Equal(t, "model", gotHistory[1].Role)
	assert.Equal(t, "user", gotLast.Role)
	assert.Equal(t, geminiPlaceholderTurn, contentText(gotLast))
}

func TestGeminiClient_Errors(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		client := NewGenerativeContentClient(GenerativeContentConfig{}, func() string { return "" }, zap.NewNop())
		_, _, err := client.Generate(context.Background(), []Message{{Role: RoleUser, Content: "U"}})
		assert.ErrorIs(t, err, ErrAIConfiguration)
	})

	t.Run("upstream error", func(t *testing.T) {
		client := NewGenerativeContentClient(GenerativeContentConfig{}, func() string { return "key" }, zap.NewNop()).(*geminiClient)
		client.send = func(context.Context, string, []*genai.Content, *genai.Content) (*genai.GenerateContentResponse, error) {
			return nil, errors.New("boom")
		}
		_, _, err := client.Generate(context.Background(), []Message{{Role: RoleUser, Content: "U"}})
		assert.ErrorIs(t, err, ErrAIGenerationFailed)
	})

	t.Run("no candidates", func(t *testing.T) {
		client := NewGenerativeContentClient(GenerativeContentConfig{}, func() string { return "key" }, zap.NewNop()).(*geminiClient)
		client.send = func(context.Context, string, []*genai.Content, *genai.Content) (*genai.GenerateContentResponse, error) {
			return &genai.GenerateContentResponse{}, nil
		}
		_, _, err := client.Generate(context.Background(), []Message{{Role: RoleUser, Content: "U"}})
		assert.ErrorIs(t, err, ErrAIGenerationFailed)
	})
}
