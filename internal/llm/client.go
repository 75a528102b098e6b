package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultRateLimit   = 2.0 // requests per second
	defaultBurst       = 4
	defaultMaxRetries  = 3
	defaultBaseBackoff = 500 * time.Millisecond
)

// Config holds configuration for the completion client.
type Config struct {
	// BaseURL is an OpenAI-compatible endpoint.
	BaseURL string

	// Model is the completion model name.
	Model string

	// APIKey authenticates against the endpoint. A placeholder is used for
	// local servers that do not check keys.
	APIKey string

	// RequestsPerSecond throttles outbound calls. Zero uses the default.
	RequestsPerSecond float64

	// MaxRetries bounds transport retries. Zero uses the default.
	MaxRetries int
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL required")
	}
	if c.Model == "" {
		return fmt.Errorf("model required")
	}
	return nil
}

// Client is a rate-limited completion client over an OpenAI-compatible API.
type Client struct {
	model      llms.Model
	limiter    *rate.Limiter
	maxRetries int
	logger     *zap.Logger
}

// NewClient creates a completion client from config.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid llm config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		// langchaingo requires a token even for keyless local servers.
		apiKey = "placeholder"
	}

	model, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithModel(cfg.Model),
		openai.WithToken(apiKey),
	)
	if err != nil {
		return nil, fmt.Errorf("creating openai client: %w", err)
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRateLimit
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	return &Client{
		model:      model,
		limiter:    rate.NewLimiter(rate.Limit(rps), defaultBurst),
		maxRetries: maxRetries,
		logger:     logger,
	}, nil
}

// Complete generates a completion for a single prompt.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	var out string
	err := c.withRetries(ctx, func() error {
		var genErr error
		out, genErr = llms.GenerateFromSinglePrompt(ctx, c.model, prompt)
		return genErr
	})
	return out, err
}

// Chat generates a response for a chat transcript, optionally with tool
// definitions supplied via llms.WithTools.
func (c *Client) Chat(ctx context.Context, messages []llms.MessageContent, opts ...llms.CallOption) (*llms.ContentResponse, error) {
	var resp *llms.ContentResponse
	err := c.withRetries(ctx, func() error {
		var genErr error
		resp, genErr = c.model.GenerateContent(ctx, messages, opts...)
		return genErr
	})
	return resp, err
}

// withRetries runs call with rate limiting and exponential backoff.
func (c *Client) withRetries(ctx context.Context, call func() error) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := defaultBaseBackoff * time.Duration(1<<(attempt-1))
			c.logger.Debug("retrying llm call",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr),
			)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		err := call()
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// isRetryable reports whether an error is worth another attempt. Context
// cancellation and deadline expiry are terminal.
func isRetryable(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
