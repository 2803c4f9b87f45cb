package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	openaigo "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// stubClient отвечает заранее заданными результатами по очереди.
type stubClient struct {
	calls   int
	texts   []string
	errs    []error
	lastCtx context.Context
}

func (s *stubClient) Generate(ctx context.Context, _ []Message) (string, UsageInfo, error) {
	i := s.calls
	s.calls++
	s.lastCtx = ctx
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	if err != nil {
		return "", UsageInfo{}, err
	}
	text := ""
	if i < len(s.texts) {
		text = s.texts[i]
	}
	return text, UsageInfo{PromptTokens: 10, CompletionTokens: 5}, nil
}

func newTestDispatcher(clients map[Provider]AIClient, markers bool) *Dispatcher {
	d := NewDispatcher(clients, DispatcherConfig{
		Timeout:           time.Second,
		MaxAttempts:       2,
		BaseRetryDelay:    time.Millisecond,
		ProvenanceMarkers: markers,
	}, zap.NewNop())
	d.estimateTokens = func([]Message) int { return 1 }
	return d
}

var testMessages = []Message{{Role: RoleSystem, Content: "S"}, {Role: RoleUser, Content: "U"}}

func TestDispatcher_RoutesBySelector(t *testing.T) {
	deepseek := &stubClient{texts: []string{"from deepseek"}}
	google := &stubClient{texts: []string{"from google"}}
	d := newTestDispatcher(map[Provider]AIClient{ProviderDeepSeek: deepseek, ProviderGoogle: google}, true)

	sel := NewSelector("google", zap.NewNop())
	gen, err := d.Generate(context.Background(), sel, testMessages)
	require.NoError(t, err)
	assert.Equal(t, ProviderGoogle, gen.Provider)
	assert.Equal(t, "from google"+ProvenanceMarker(ProviderGoogle), gen.Text)

	sel.Set("deepseek")
	gen, err = d.Generate(context.Background(), sel, testMessages)
	require.NoError(t, err)
	assert.Equal(t, ProviderDeepSeek, gen.Provider)
	assert.Equal(t, "from deepseek"+ProvenanceMarker(ProviderDeepSeek), gen.Text)

	assert.Equal(t, 1, google.calls)
	assert.Equal(t, 1, deepseek.calls)
}

func TestDispatcher_WithoutMarkers(t *testing.T) {
	d := newTestDispatcher(map[Provider]AIClient{ProviderDeepSeek: &stubClient{texts: []string{"plain"}}}, false)
	gen, err := d.Generate(context.Background(), NewSelector("", zap.NewNop()), testMessages)
	require.NoError(t, err)
	assert.Equal(t, "plain", gen.Text)
}

func TestDispatcher_RetriesTransientOnce(t *testing.T) {
	transient := fmt.Errorf("%w: %w", ErrAIGenerationFailed, &openaigo.APIError{HTTPStatusCode: http.StatusBadGateway, Message: "bad gateway"})
	client := &stubClient{errs: []error{transient}, texts: []string{"", "second try"}}
	d := newTestDispatcher(map[Provider]AIClient{ProviderDeepSeek: client}, false)

	gen, err := d.Generate(context.Background(), NewSelector("deepseek", zap.NewNop()), testMessages)
	require.NoError(t, err)
	assert.Equal(t, "second try", gen.Text)
	assert.Equal(t, 2, client.calls)
}

func TestDispatcher_GivesUpAfterMaxAttempts(t *testing.T) {
	transient := fmt.Errorf("%w: %w", ErrAIGenerationFailed, status.Error(codes.Unavailable, "down"))
	client := &stubClient{errs: []error{transient, transient, transient}}
	d := newTestDispatcher(map[Provider]AIClient{ProviderGoogle: client}, false)

	_, err := d.Generate(context.Background(), NewSelector("google", zap.NewNop()), testMessages)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAIGenerationFailed)
	assert.Equal(t, 2, client.calls)
}

func TestDispatcher_DoesNotRetryPermanentErrors(t *testing.T) {
	permanent := fmt.Errorf("%w: %w", ErrAIGenerationFailed, &openaigo.APIError{HTTPStatusCode: http.StatusUnauthorized})
	client := &stubClient{errs: []error{permanent}}
	d := newTestDispatcher(map[Provider]AIClient{ProviderDeepSeek: client}, false)

	_, err := d.Generate(context.Background(), NewSelector("", zap.NewNop()), testMessages)
	assert.ErrorIs(t, err, ErrAIGenerationFailed)
	assert.Equal(t, 1, client.calls)
}

func TestDispatcher_ConfigurationErrors(t *testing.T) {
	d := newTestDispatcher(map[Provider]AIClient{ProviderDeepSeek: &stubClient{}}, false)

	_, err := d.Generate(context.Background(), NewSelector("google", zap.NewNop()), testMessages)
	assert.ErrorIs(t, err, ErrAIConfiguration)

	missingKey := &stubClient{errs: []error{fmt.Errorf("%w: key", ErrAIConfiguration)}}
	d = newTestDispatcher(map[Provider]AIClient{ProviderDeepSeek: missingKey}, false)
	_, err = d.Generate(context.Background(), NewSelector("", zap.NewNop()), testMessages)
	assert.ErrorIs(t, err, ErrAIConfiguration)
	assert.Equal(t, 1, missingKey.calls)
}

func TestDispatcher_AppliesTimeout(t *testing.T) {
	client := &stubClient{texts: []string{"ok"}}
	d := newTestDispatcher(map[Provider]AIClient{ProviderDeepSeek: client}, false)

	_, err := d.Generate(context.Background(), NewSelector("", zap.NewNop()), testMessages)
	require.NoError(t, err)
	_, hasDeadline := client.lastCtx.Deadline()
	assert.True(t, hasDeadline)
}

func TestDispatcher_CancelledContextStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := &stubClient{errs: []error{fmt.Errorf("%w: %w", ErrAIGenerationFailed, context.Canceled)}}
	d := newTestDispatcher(map[Provider]AIClient{ProviderDeepSeek: client}, false)

	_, err := d.Generate(ctx, NewSelector("", zap.NewNop()), testMessages)
	assert.Error(t, err)
	assert.Equal(t, 1, client.calls)
}

func TestStripProvenance(t *testing.T) {
	text := "正文" + ProvenanceMarker(ProviderDeepSeek)
	assert.Equal(t, "正文", StripProvenance(text))
	assert.Equal(t, "正文", StripProvenance("正文 [由 Google Gemini 生成]"))
}

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(context.DeadlineExceeded))
	assert.False(t, isTransient(context.Canceled))
	assert.False(t, isTransient(errors.New("plain")))
	assert.True(t, isTransient(&openaigo.RequestError{HTTPStatusCode: http.StatusTooManyRequests, Err: errors.New("slow down")}))
	assert.False(t, isTransient(status.Error(codes.InvalidArgument, "bad")))
	assert.True(t, isTransient(status.Error(codes.ResourceExhausted, "quota")))
}
