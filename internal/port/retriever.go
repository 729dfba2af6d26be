package port

import (
	"context"

	"docrag/internal/domain"
)

// Retriever defines the interface for searching the corpus.
type Retriever interface {
	// Search returns the top-k chunks most similar to query.
	Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error)
}
