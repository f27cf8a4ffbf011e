// internal/generation/llm.go
package generation

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"support-engine/internal/common/config"
	"support-engine/internal/routing"
)

// Usage is the token accounting for one generation call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// ChatModel runs one system+user exchange against a chat model.
type ChatModel interface {
	Chat(ctx context.Context, systemPrompt, userPrompt string) (string, Usage, error)
}

// openAIModel is a langchaingo-backed ChatModel pinned to one model name.
type openAIModel struct {
	llm         *openai.LLM
	model       string
	temperature float64
	maxTokens   int
}

func (m *openAIModel) Chat(ctx context.Context, systemPrompt, userPrompt string) (string, Usage, error) {
	content := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, userPrompt),
	}

	resp, err := m.llm.GenerateContent(ctx, content,
		llms.WithModel(m.model),
		llms.WithTemperature(m.temperature),
		llms.WithMaxTokens(m.maxTokens),
	)
	if err != nil {
		return "", Usage{}, err
	}
	if len(resp.Choices) == 0 {
		return "", Usage{}, fmt.Errorf("model %s returned no choices", m.model)
	}

	choice := resp.Choices[0]
	usage := usageFromGenerationInfo(choice.GenerationInfo)
	return choice.Content, usage, nil
}

// usageFromGenerationInfo pulls token counts out of the provider's
// generation info. Providers disagree on number types, so both int and
// float64 are accepted.
func usageFromGenerationInfo(info map[string]any) Usage {
	asInt := func(key string) int {
		switch v := info[key].(type) {
		case int:
			return v
		case float64:
			return int(v)
		default:
			return 0
		}
	}

	u := Usage{
		InputTokens:  asInt("PromptTokens"),
		OutputTokens: asInt("CompletionTokens"),
		TotalTokens:  asInt("TotalTokens"),
	}
	if u.TotalTokens == 0 {
		u.TotalTokens = u.InputTokens + u.OutputTokens
	}
	return u
}

// ModelProvider hands out the chat model appropriate for a bucket.
type ModelProvider interface {
	ModelForBucket(b routing.Bucket) ChatModel
}

// Client owns the small and big chat models. BUCKET_B answers use the
// small model; the big model backs escalations that are answered by an
// LLM rather than a static handoff.
type Client struct {
	small ChatModel
	big   ChatModel
}

// NewClient builds both models against one OpenAI-compatible endpoint.
func NewClient(cfg config.LLMConfig) (*Client, error) {
	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.SmallModel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}

	return &Client{
		small: &openAIModel{llm: llm, model: cfg.SmallModel, temperature: cfg.Temperature, maxTokens: cfg.MaxTokens},
		big:   &openAIModel{llm: llm, model: cfg.BigModel, temperature: cfg.Temperature, maxTokens: cfg.MaxTokens},
	}, nil
}

// ModelForBucket returns the big model for BUCKET_C and the small model
// otherwise.
func (c *Client) ModelForBucket(b routing.Bucket) ChatModel {
	if b == routing.BucketC {
		return c.big
	}
	return c.small
}
