package llm

import (
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// EmbedderConfig configures embedding generation.
type EmbedderConfig struct {
	BaseURL string
	Model   string
	APIKey  string
}

// NewEmbedder creates an embedder over an OpenAI-compatible embeddings API.
func NewEmbedder(cfg EmbedderConfig) (*embeddings.EmbedderImpl, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("embedder: base URL required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("embedder: model required")
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = "placeholder"
	}

	model, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(apiKey),
		openai.WithEmbeddingModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("embedder: creating openai client: %w", err)
	}
	return embeddings.NewEmbedder(model)
}
