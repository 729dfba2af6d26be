package port

import "docrag/internal/domain"

// Ranker orders corpus entries by similarity to a query vector.
type Ranker interface {
	Rank(query []float32, entries []domain.CorpusEntry, k int) ([]domain.ScoredChunk, error)
}
