// internal/retriever/embedder.go
package retriever

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"support-engine/internal/common/config"
)

// Embedder produces a vector for a single query string. Satisfied by
// langchaingo's embeddings.Embedder.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// NewOpenAIEmbedder builds a langchaingo embedder against an
// OpenAI-compatible endpoint.
func NewOpenAIEmbedder(cfg config.LLMConfig) (embeddings.Embedder, error) {
	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(cfg.APIKey),
		openai.WithEmbeddingModel(cfg.EmbeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return embedder, nil
}
