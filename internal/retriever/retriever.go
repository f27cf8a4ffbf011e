// internal/retriever/retriever.go
package retriever

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"support-engine/internal/common/errors"
	"support-engine/internal/common/logger"
	"support-engine/internal/common/metrics"
)

// EmptyContextSentinel is returned by FormatContext when retrieval
// produced no documents. Downstream prompts rely on this exact string.
const EmptyContextSentinel = "No relevant information found in knowledge base."

// DocMetadata is the payload stored for one knowledge-base entry.
type DocMetadata struct {
	Intent      string `json:"intent"`
	Instruction string `json:"instruction"`
	Response    string `json:"response"`
}

type metadataEntry struct {
	ID       string      `json:"id"`
	Metadata DocMetadata `json:"metadata"`
}

// Document is one retrieval result.
type Document struct {
	ID       string      `json:"id"`
	Score    float64     `json:"score"`
	Metadata DocMetadata `json:"metadata"`
}

// Retriever embeds queries and searches the knowledge-base index.
type Retriever struct {
	embedder Embedder
	searcher Searcher
	metadata []metadataEntry
	topK     int
	cache    *embeddingCache
	logger   logger.Logger
}

// New loads the metadata artifact and wires the retriever. A missing or
// unreadable metadata file is fatal, mirroring the index-existence check
// done when the searcher is constructed.
func New(embedder Embedder, searcher Searcher, metadataPath string, topK, cacheCap int, log logger.Logger) (*Retriever, error) {
	raw, err := os.ReadFile(metadataPath)
	if err != nil {
		return nil, errors.NewMetadataArtifactMissingError(metadataPath)
	}

	var entries []metadataEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, errors.NewMetadataArtifactMissingError(fmt.Sprintf("%s: %v", metadataPath, err))
	}

	r := &Retriever{
		embedder: embedder,
		searcher: searcher,
		metadata: entries,
		topK:     topK,
		cache:    newEmbeddingCache(cacheCap),
		logger: log.With(map[string]interface{}{
			"component": "retriever",
		}),
	}

	r.logger.Info("retriever initialized", map[string]interface{}{
		"metadataEntries": len(entries),
		"topK":            topK,
		"cacheCap":        cacheCap,
	})
	return r, nil
}

// queryEmbedding returns the embedding for a query, serving repeats from
// the cache. Cache keys are the exact query string.
func (r *Retriever) queryEmbedding(ctx context.Context, query string) ([]float32, error) {
	if vec, ok := r.cache.get(query); ok {
		return vec, nil
	}

	vec, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, errors.NewEmbeddingFailedError(err)
	}

	r.cache.put(query, vec)
	return vec, nil
}

// Retrieve returns the topK most similar knowledge-base documents for a
// query. Pass topK <= 0 to use the configured default. Hits pointing
// outside the metadata file are dropped rather than failing the request.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]Document, error) {
	start := time.Now()
	defer func() {
		metrics.RetrievalDuration.Observe(time.Since(start).Seconds())
	}()

	k := topK
	if k <= 0 {
		k = r.topK
	}

	vec, err := r.queryEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}

	hits, err := r.searcher.Search(ctx, normalizeL2(vec), k)
	if err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(hits))
	for _, hit := range hits {
		if hit.Index < 0 || hit.Index >= len(r.metadata) {
			r.logger.Warn("search hit outside metadata bounds", map[string]interface{}{
				"index":           hit.Index,
				"metadataEntries": len(r.metadata),
			})
			continue
		}
		entry := r.metadata[hit.Index]
		docs = append(docs, Document{
			ID:       entry.ID,
			Score:    hit.Score,
			Metadata: entry.Metadata,
		})
	}

	return docs, nil
}

// FormatContext renders retrieved documents as a numbered context block
// for the RAG prompt.
func FormatContext(docs []Document) string {
	if len(docs) == 0 {
		return EmptyContextSentinel
	}

	parts := make([]string, 0, len(docs))
	for i, doc := range docs {
		parts = append(parts, fmt.Sprintf("[Context %d]\nQuestion: %s\nAnswer: %s",
			i+1, doc.Metadata.Instruction, doc.Metadata.Response))
	}
	return strings.Join(parts, "\n\n")
}

// normalizeL2 scales a vector to unit length. Zero vectors pass through
// unchanged.
func normalizeL2(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}

	norm := math.Sqrt(sum)
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}
