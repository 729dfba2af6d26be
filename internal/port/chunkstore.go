package port

import (
	"context"

	"docrag/internal/domain"
)

// ChunkStore persists (chunk, vector) pairs. The corpus is append-only.
type ChunkStore interface {
	// Insert stores a chunk and its vector and returns the store-assigned id.
	// Inserting the same chunk twice creates two entries.
	Insert(ctx context.Context, chunk string, vector []float32) (string, error)

	// FetchAll returns every stored entry, in insertion order when the
	// backend can provide it.
	FetchAll(ctx context.Context) ([]domain.CorpusEntry, error)
}

// StatsStore is implemented by stores that can report corpus size cheaply.
type StatsStore interface {
	Stats(ctx context.Context) (domain.Stats, error)
}
