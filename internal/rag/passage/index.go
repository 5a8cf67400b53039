// Package passage segments document text and serves in-memory similarity
// queries over the segments for the lifetime of one request.
package passage

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/akolanti/doctutor/internal/config"
	"github.com/akolanti/doctutor/internal/domain/commonModels"
	"github.com/akolanti/doctutor/internal/rag/embedding"
	"github.com/akolanti/doctutor/internal/rag/vectorDB"
)

type Options struct {
	MaxChars int
	Overlap  int
	TopK     int
}

func DefaultOptions() Options {
	return Options{
		MaxChars: config.PassageMaxChars,
		Overlap:  config.PassageOverlap,
		TopK:     config.DefaultTopK,
	}
}

type memoryBuilder struct {
	embedder embedding.Embedder
	options  Options
}

// NewMemoryBuilder indexes passages in process with brute-force cosine scoring.
func NewMemoryBuilder(e embedding.Embedder, options Options) vectorDB.Builder {
	if options.TopK < 1 {
		options.TopK = config.DefaultTopK
	}
	return &memoryBuilder{embedder: e, options: options}
}

func (b *memoryBuilder) Build(ctx context.Context, text string) (vectorDB.PassageIndex, error) {
	texts := Split(text, b.options.MaxChars, b.options.Overlap)
	idx := &memoryIndex{embedder: b.embedder, topK: b.options.TopK}
	if len(texts) == 0 {
		return idx, nil
	}

	vectors, err := b.embedder.BatchEmbedding(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed passages: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("mismatch: got %d passages but %d vectors", len(texts), len(vectors))
	}

	idx.passages = make([]commonModels.Passage, len(texts))
	for i, t := range texts {
		idx.passages[i] = commonModels.Passage{Rank: i, Text: t}
	}
	idx.vectors = vectors
	return idx, nil
}

type memoryIndex struct {
	embedder embedding.Embedder
	topK     int
	passages []commonModels.Passage
	vectors  [][]float32
}

func (m *memoryIndex) Len() int { return len(m.passages) }

func (m *memoryIndex) Close(ctx context.Context) error { return nil }

func (m *memoryIndex) Query(ctx context.Context, query string, k int) ([]commonModels.Passage, error) {
	if k <= 0 {
		k = m.topK
	}
	if len(m.passages) == 0 {
		return []commonModels.Passage{}, nil
	}

	q, err := m.embedder.GetEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scored := make([]commonModels.Passage, len(m.passages))
	for i, p := range m.passages {
		p.Score = CosineSimilarity(q, m.vectors[i])
		scored[i] = p
	}
	// stable: equal scores keep source order
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
