// internal/retriever/cache.go
package retriever

import (
	"sync"

	"support-engine/internal/common/metrics"
)

// embeddingCache memoizes query embeddings by exact query text. Inserts
// stop once the cache holds cap entries; existing entries keep serving
// hits. There is no eviction.
type embeddingCache struct {
	mu      sync.Mutex
	cap     int
	entries map[string][]float32
}

func newEmbeddingCache(capacity int) *embeddingCache {
	return &embeddingCache{
		cap:     capacity,
		entries: make(map[string][]float32),
	}
}

func (c *embeddingCache) get(query string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	vec, ok := c.entries[query]
	if ok {
		metrics.EmbeddingCacheHits.Inc()
	} else {
		metrics.EmbeddingCacheMisses.Inc()
	}
	return vec, ok
}

func (c *embeddingCache) put(query string, vec []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.cap {
		return
	}
	c.entries[query] = vec
}

func (c *embeddingCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
