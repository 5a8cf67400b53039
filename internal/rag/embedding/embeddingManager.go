package embedding

import "context"

// Embedder maps text onto vectors comparable by cosine similarity. Query and
// document embeddings from one Embedder share a space.
type Embedder interface {
	GetEmbedding(ctx context.Context, query string) ([]float32, error)
	BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error)
}

// BatchSize caps how many passages a remote embedder sends per call.
const BatchSize = 100

// Batches splits texts into consecutive slices of at most size elements.
func Batches(texts []string, size int) [][]string {
	if size < 1 {
		size = BatchSize
	}
	var out [][]string
	for i := 0; i < len(texts); i += size {
		end := min(i+size, len(texts))
		out = append(out, texts[i:end])
	}
	return out
}
