package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"storydive/internal/config"
	"storydive/internal/models"
)

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storydive_ai_requests_total",
			Help: "Total number of requests to the AI API.",
		},
		[]string{"model", "status"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storydive_ai_request_duration_seconds",
			Help:    "Histogram of AI API request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)
	aiPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storydive_ai_prompt_tokens",
			Help:    "Histogram of prompt token counts.",
			Buckets: prometheus.LinearBuckets(250, 250, 20),
		},
		[]string{"model"},
	)
	aiCompletionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storydive_ai_completion_tokens",
			Help:    "Histogram of completion token counts.",
			Buckets: prometheus.LinearBuckets(100, 100, 20),
		},
		[]string{"model"},
	)
)

// Client calls the chat-completion API with a single prompt. It
// implements the Generator contract consumed by the story loop and the
// ending judge.
type Client struct {
	api         *openai.Client
	model       string
	maxTokens   int
	temperature float32
	logger      *zap.Logger
}

// NewClient builds the API client from configuration. An empty base URL
// selects the default endpoint.
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	apiCfg := openai.DefaultConfig(cfg.AIAPIKey)
	if cfg.AIBaseURL != "" {
		apiCfg.BaseURL = cfg.AIBaseURL
	}
	apiCfg.HTTPClient = &http.Client{Timeout: cfg.AITimeout}

	return &Client{
		api:         openai.NewClientWithConfig(apiCfg),
		model:       cfg.AIModel,
		maxTokens:   cfg.AIMaxTokens,
		temperature: cfg.AITemperature,
		logger:      logger.Named("AIClient"),
	}
}

// Generate sends the prompt and returns the raw generated text. An empty
// completion counts as a failure; callers recover per their own policy.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error"}).Inc()
		return "", fmt.Errorf("%w: empty prompt", models.ErrGenerationFailed)
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	duration := time.Since(start)

	if err != nil {
		c.logger.Error("AI request failed", zap.Duration("duration", duration), zap.Error(err))
		aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error"}).Inc()
		return "", fmt.Errorf("%w: %v", models.ErrGenerationFailed, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		c.logger.Warn("AI returned empty response", zap.Duration("duration", duration))
		aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error_empty_response"}).Inc()
		return "", fmt.Errorf("%w: empty response", models.ErrGenerationFailed)
	}

	aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "success"}).Inc()
	aiRequestDuration.With(prometheus.Labels{"model": c.model}).Observe(duration.Seconds())

	text := resp.Choices[0].Message.Content
	promptTokens := resp.Usage.PromptTokens
	completionTokens := resp.Usage.CompletionTokens
	if resp.Usage.TotalTokens == 0 {
		// some compatible backends omit usage, estimate locally
		promptTokens, completionTokens = c.estimateTokens(prompt, text)
	}
	aiPromptTokens.With(prometheus.Labels{"model": c.model}).Observe(float64(promptTokens))
	aiCompletionTokens.With(prometheus.Labels{"model": c.model}).Observe(float64(completionTokens))

	c.logger.Debug("AI response received",
		zap.Duration("duration", duration),
		zap.Int("promptTokens", promptTokens),
		zap.Int("completionTokens", completionTokens),
		zap.Int("chars", len(text)))
	return text, nil
}

func (c *Client) estimateTokens(prompt, completion string) (int, int) {
	tke, err := tiktoken.EncodingForModel(c.model)
	if err != nil {
		tke, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return 0, 0
		}
	}
	return len(tke.Encode(prompt, nil, nil)), len(tke.Encode(completion, nil, nil))
}
