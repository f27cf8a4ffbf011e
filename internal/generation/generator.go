// internal/generation/generator.go
package generation

import (
	"context"

	"support-engine/internal/common/errors"
	"support-engine/internal/common/logger"
	"support-engine/internal/common/metrics"
	"support-engine/internal/routing"
)

// Output is the generated answer plus its token and cost accounting.
// Template-only answers carry zero usage and cost.
type Output struct {
	Response string  `json:"response"`
	Usage    Usage   `json:"usage"`
	CostUSD  float64 `json:"cost_usd"`
}

// Generator produces the final customer-facing response for a bucket.
type Generator struct {
	models          ModelProvider
	inputCostPer1M  float64
	outputCostPer1M float64
	logger          logger.Logger
}

// NewGenerator wires a generator over a model provider. Costs are USD
// per million tokens.
func NewGenerator(models ModelProvider, inputCostPer1M, outputCostPer1M float64, log logger.Logger) *Generator {
	return &Generator{
		models:          models,
		inputCostPer1M:  inputCostPer1M,
		outputCostPer1M: outputCostPer1M,
		logger: log.With(map[string]interface{}{
			"component": "generation",
		}),
	}
}

// Generate picks the response strategy for the bucket. BUCKET_A serves a
// template, BUCKET_B runs RAG through the small model, BUCKET_C returns
// the escalation handoff message. An unrecognized bucket degrades to a
// generic apology rather than failing the request.
func (g *Generator) Generate(ctx context.Context, bucket routing.Bucket, intent, query, retrievedContext string) (*Output, error) {
	switch bucket {
	case routing.BucketA:
		return &Output{Response: DirectResponse(intent)}, nil

	case routing.BucketB:
		return g.generateRAG(ctx, query, retrievedContext)

	case routing.BucketC:
		return &Output{Response: EscalationMessage(intent)}, nil

	default:
		g.logger.Warn("unrecognized bucket, serving generic response", map[string]interface{}{
			"bucket": string(bucket),
		})
		return &Output{Response: unknownBucketResponse}, nil
	}
}

func (g *Generator) generateRAG(ctx context.Context, query, retrievedContext string) (*Output, error) {
	model := g.models.ModelForBucket(routing.BucketB)

	raw, usage, err := model.Chat(ctx, RAGSystemPrompt, RAGPrompt(retrievedContext, query))
	if err != nil {
		return nil, errors.NewGenerationFailedError(err)
	}

	cost := g.cost(usage)
	metrics.LLMTokens.WithLabelValues("input").Add(float64(usage.InputTokens))
	metrics.LLMTokens.WithLabelValues("output").Add(float64(usage.OutputTokens))
	metrics.LLMCostUSD.Add(cost)

	return &Output{
		Response: CleanResponse(raw),
		Usage:    usage,
		CostUSD:  cost,
	}, nil
}

func (g *Generator) cost(u Usage) float64 {
	return float64(u.InputTokens)/1e6*g.inputCostPer1M +
		float64(u.OutputTokens)/1e6*g.outputCostPer1M
}
