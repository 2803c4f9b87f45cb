package ai

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "story_server_ai_requests_total",
			Help: "Total number of requests to the AI providers.",
		},
		[]string{"provider", "status"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "story_server_ai_request_duration_seconds",
			Help:    "Histogram of AI provider request durations.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 120},
		},
		[]string{"provider"},
	)
	aiPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "story_server_ai_prompt_tokens",
			Help:    "Histogram of prompt token counts (reported or estimated).",
			Buckets: prometheus.LinearBuckets(250, 250, 20),
		},
		[]string{"provider"},
	)
	aiCompletionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "story_server_ai_completion_tokens",
			Help:    "Histogram of completion token counts.",
			Buckets: prometheus.LinearBuckets(100, 100, 20),
		},
		[]string{"provider"},
	)
)

const tokenEncoding = "cl100k_base"

var (
	encoderOnce sync.Once
	encoder     *tiktoken.Tiktoken
)

// estimateTokens оценивает число токенов промта, когда провайдер не вернул usage.
// Если словарь tiktoken недоступен, используется грубая оценка по рунам.
func estimateTokens(messages []Message) int {
	encoderOnce.Do(func() {
		if tke, err := tiktoken.GetEncoding(tokenEncoding); err == nil {
			encoder = tke
		}
	})

	total := 0
	for _, m := range messages {
		if encoder != nil {
			total += len(encoder.Encode(m.Content, nil, nil))
			continue
		}
		total += len([]rune(m.Content)) / 2
	}
	return total
}
