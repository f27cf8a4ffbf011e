// internal/retriever/es.go
package retriever

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"support-engine/internal/common/database"
	"support-engine/internal/common/errors"
)

// Hit is one similarity-search result: the document's position in the
// metadata file and its similarity score.
type Hit struct {
	Index int
	Score float64
}

// Searcher runs a k-nearest-neighbor search over the knowledge-base index.
type Searcher interface {
	Search(ctx context.Context, vector []float32, k int) ([]Hit, error)
}

// ElasticsearchSearcher searches a dense-vector index where each document
// carries its metadata position in the doc_index field.
type ElasticsearchSearcher struct {
	es        *database.ElasticsearchClient
	indexName string
}

// NewElasticsearchSearcher verifies the index exists and returns a
// searcher over it. A missing index is a fatal startup condition.
func NewElasticsearchSearcher(ctx context.Context, es *database.ElasticsearchClient, indexName string) (*ElasticsearchSearcher, error) {
	res, err := es.Client.Indices.Exists(
		[]string{indexName},
		es.Client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return nil, errors.NewIndexArtifactMissingError(fmt.Sprintf("index %q: %v", indexName, err))
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.NewIndexArtifactMissingError(fmt.Sprintf("index %q does not exist", indexName))
	}

	return &ElasticsearchSearcher{es: es, indexName: indexName}, nil
}

type knnResponse struct {
	Hits struct {
		Hits []struct {
			Score  float64 `json:"_score"`
			Source struct {
				DocIndex int `json:"doc_index"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search runs a kNN query against the embedding field.
func (s *ElasticsearchSearcher) Search(ctx context.Context, vector []float32, k int) ([]Hit, error) {
	query := map[string]interface{}{
		"knn": map[string]interface{}{
			"field":          "embedding",
			"query_vector":   vector,
			"k":              k,
			"num_candidates": k * 10,
		},
		"size":    k,
		"_source": []string{"doc_index"},
	}

	body, err := json.Marshal(query)
	if err != nil {
		return nil, errors.NewSearchFailedError(err)
	}

	res, err := s.es.Client.Search(
		s.es.Client.Search.WithContext(ctx),
		s.es.Client.Search.WithIndex(s.indexName),
		s.es.Client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, errors.NewSearchFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		raw, _ := io.ReadAll(res.Body)
		return nil, errors.NewSearchFailedError(fmt.Errorf("status %s: %s", res.Status(), string(raw)))
	}

	var parsed knnResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, errors.NewSearchFailedError(err)
	}

	hits := make([]Hit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		hits = append(hits, Hit{Index: h.Source.DocIndex, Score: h.Score})
	}
	return hits, nil
}
