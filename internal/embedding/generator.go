// Package embedding generates text embeddings through a provider and
// memoizes them in a bounded LRU cache.
package embedding

import (
	"container/list"
	"context"
	"math"
	"sync"

	"github.com/aech-ai/mcp-teams/internal/openai"
)

// DefaultCacheSize bounds the embedding cache when no size is given.
const DefaultCacheSize = 100

// Provider is the upstream embedding source.
type Provider interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

var _ Provider = (*openai.Client)(nil)

type cacheEntry struct {
	text      string
	embedding []float32
}

// Generator wraps a Provider with an LRU cache keyed by exact text.
// All methods are safe for concurrent use.
type Generator struct {
	provider Provider

	mu      sync.Mutex
	maxSize int
	entries map[string]*list.Element
	order   *list.List // front = most recently used
}

// NewGenerator creates a Generator with the given cache capacity.
// A non-positive capacity falls back to DefaultCacheSize.
func NewGenerator(provider Provider, cacheSize int) *Generator {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	return &Generator{
		provider: provider,
		maxSize:  cacheSize,
		entries:  make(map[string]*list.Element, cacheSize),
		order:    list.New(),
	}
}

// GetEmbedding returns the embedding for text, from cache when present.
func (g *Generator) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	if embedding, ok := g.lookup(text); ok {
		return embedding, nil
	}

	embedding, err := g.provider.CreateEmbedding(ctx, text)
	if err != nil {
		return nil, err
	}

	g.store(text, embedding)
	return embedding, nil
}

// GetEmbeddings returns embeddings for texts in input order. Cached
// texts are served from the cache; the remainder goes to the provider
// in a single batched call.
func (g *Generator) GetEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))
	var uncached []string
	var uncachedIdx []int

	for i, text := range texts {
		if embedding, ok := g.lookup(text); ok {
			results[i] = embedding
		} else {
			uncached = append(uncached, text)
			uncachedIdx = append(uncachedIdx, i)
		}
	}

	if len(uncached) > 0 {
		embeddings, err := g.provider.CreateEmbeddings(ctx, uncached)
		if err != nil {
			return nil, err
		}
		for j, embedding := range embeddings {
			results[uncachedIdx[j]] = embedding
			g.store(uncached[j], embedding)
		}
	}

	return results, nil
}

// CacheLen returns the number of cached embeddings.
func (g *Generator) CacheLen() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

func (g *Generator) lookup(text string) ([]float32, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	elem, ok := g.entries[text]
	if !ok {
		return nil, false
	}
	g.order.MoveToFront(elem)
	return elem.Value.(*cacheEntry).embedding, true
}

func (g *Generator) store(text string, embedding []float32) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if elem, ok := g.entries[text]; ok {
		g.order.MoveToFront(elem)
		elem.Value.(*cacheEntry).embedding = embedding
		return
	}

	if len(g.entries) >= g.maxSize {
		oldest := g.order.Back()
		if oldest != nil {
			g.order.Remove(oldest)
			delete(g.entries, oldest.Value.(*cacheEntry).text)
		}
	}

	g.entries[text] = g.order.PushFront(&cacheEntry{text: text, embedding: embedding})
}

// Normalize returns a unit-length copy of the embedding. A zero vector
// is returned unchanged.
func Normalize(embedding []float32) []float32 {
	var sum float64
	for _, v := range embedding {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return embedding
	}

	norm := math.Sqrt(sum)
	normalized := make([]float32, len(embedding))
	for i, v := range embedding {
		normalized[i] = float32(float64(v) / norm)
	}
	return normalized
}
