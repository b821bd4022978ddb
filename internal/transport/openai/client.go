// Package openai is the model gateway: a uniform retrying client over an
// OpenAI-compatible API exposing the two model identities the pipeline
// uses, a completion model for structured extraction and an embedding
// model for vectorization.
package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docindex/internal/domain"
	"github.com/kailas-cloud/docindex/internal/metrics"
)

// Input limits of the underlying capabilities. Inputs are truncated
// silently before the call; the extracted fields are assumed to appear
// early in a document.
const (
	CompletionInputLimit = 2000
	EmbeddingInputLimit  = 8000
)

// Client wraps the OpenAI-compatible API with bounded retries. Fatal
// errors and retry exhaustion surface as domain.ErrModelUnavailable;
// nothing is raised past this boundary.
type Client struct {
	api             *openai.Client
	completionModel string
	embeddingModel  string
	retry           Policy
	logger          *zap.Logger
}

// Config holds the model gateway settings.
type Config struct {
	APIKey          string
	BaseURL         string
	CompletionModel string
	EmbeddingModel  string
	MaxAttempts     int
	BaseDelay       time.Duration
	Logger          *zap.Logger
}

// NewClient creates a model gateway client.
func NewClient(cfg *Config) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	baseDelay := cfg.BaseDelay
	if baseDelay <= 0 {
		baseDelay = time.Second
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		api:             openai.NewClientWithConfig(clientCfg),
		completionModel: cfg.CompletionModel,
		embeddingModel:  cfg.EmbeddingModel,
		retry: Policy{
			MaxAttempts: maxAttempts,
			BaseDelay:   baseDelay,
			Retryable:   isTransient,
		},
		logger: logger,
	}
}

// Complete sends a prompt to the completion model and returns the raw
// response text. The prompt is truncated to CompletionInputLimit runes.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	prompt = truncate(prompt, CompletionInputLimit)

	var text string
	err := c.invoke(ctx, c.completionModel, func() error {
		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.completionModel,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: 0,
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("empty completion response")
		}
		text = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("complete: %w: %w", domain.ErrModelUnavailable, err)
	}
	return text, nil
}

// Embed vectorizes text with the embedding model. The text is truncated
// to EmbeddingInputLimit runes.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	text = truncate(text, EmbeddingInputLimit)

	var vector []float32
	err := c.invoke(ctx, c.embeddingModel, func() error {
		resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input:          []string{text},
			Model:          openai.EmbeddingModel(c.embeddingModel),
			EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		})
		if err != nil {
			return err
		}
		if len(resp.Data) == 0 {
			return fmt.Errorf("empty embedding response")
		}
		vector = resp.Data[0].Embedding
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("embed: %w: %w", domain.ErrModelUnavailable, err)
	}
	return vector, nil
}

// invoke runs one model call under the retry policy with metrics.
func (c *Client) invoke(ctx context.Context, model string, op func() error) error {
	policy := c.retry
	policy.OnRetry = func(attempt int, err error) {
		metrics.ModelRetriesTotal.WithLabelValues(model).Inc()
		c.logger.Warn("model call failed, retrying",
			zap.String("model", model),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}

	start := time.Now()
	err := policy.Do(ctx, op)
	metrics.ModelRequestDuration.WithLabelValues(model).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ModelRequestsTotal.WithLabelValues(model, "error").Inc()
		return err
	}
	metrics.ModelRequestsTotal.WithLabelValues(model, "success").Inc()
	return nil
}

// truncate cuts s to at most limit runes.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
