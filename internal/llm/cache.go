// ABOUTME: LRU cache in front of an Embedder
// ABOUTME: Only strings missing from the cache are sent to the wrapped embedder
package llm

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of embeddings kept in memory.
const DefaultCacheSize = 65536

// CachedEmbedder memoizes embeddings by exact input text.
type CachedEmbedder struct {
	next  Embedder
	cache *lru.Cache[string, []float64]
}

// NewCachedEmbedder wraps next with an LRU of size entries.
func NewCachedEmbedder(next Embedder, size int) (*CachedEmbedder, error) {
	cache, err := lru.New[string, []float64](size)
	if err != nil {
		return nil, fmt.Errorf("creating embedding cache: %w", err)
	}
	return &CachedEmbedder{next: next, cache: cache}, nil
}

// Embed returns cached vectors and embeds the rest in one call.
func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	var missing []string
	positions := make(map[string][]int)
	for i, t := range texts {
		if v, ok := c.cache.Get(t); ok {
			out[i] = v
			continue
		}
		if _, queued := positions[t]; !queued {
			missing = append(missing, t)
		}
		positions[t] = append(positions[t], i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	vectors, err := c.next.Embed(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missing) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(missing))
	}
	for i, t := range missing {
		c.cache.Add(t, vectors[i])
		for _, p := range positions[t] {
			out[p] = vectors[i]
		}
	}
	return out, nil
}

// Len returns the number of cached embeddings.
func (c *CachedEmbedder) Len() int {
	return c.cache.Len()
}
