package vectorDB

import (
	"context"

	"github.com/akolanti/doctutor/internal/domain/commonModels"
)

// PassageIndex answers top-k similarity queries over one document's passages.
// It is immutable once built and lives for a single request.
type PassageIndex interface {
	// Query returns at most k passages, highest similarity first, ties in
	// source order. k <= 0 means the configured default.
	Query(ctx context.Context, query string, k int) ([]commonModels.Passage, error)
	Len() int
	// Close releases anything the index holds outside the process.
	Close(ctx context.Context) error
}

// Builder segments document text and indexes the passages.
type Builder interface {
	Build(ctx context.Context, text string) (PassageIndex, error)
}
