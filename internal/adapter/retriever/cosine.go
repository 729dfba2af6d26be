package retriever

import (
	"math"
	"sort"

	"docrag/internal/domain"
)

// CosineSimilarity returns dot(a,b) / (|a| |b|), or 0 when either vector has
// zero norm. Vectors of different length are not comparable; callers check.
func CosineSimilarity(a, b []float32) float64 {
	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// CosineRanker does an exhaustive scan of the corpus snapshot it is given.
type CosineRanker struct{}

func NewCosineRanker() *CosineRanker {
	return &CosineRanker{}
}

// Rank scores every entry against query and returns the top k by descending
// similarity. Entries with equal scores keep their input order.
func (r *CosineRanker) Rank(query []float32, entries []domain.CorpusEntry, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 || len(entries) == 0 {
		return []domain.ScoredChunk{}, nil
	}

	scores := make([]domain.ScoredChunk, len(entries))
	for i, entry := range entries {
		if len(entry.Vector) != len(query) {
			return nil, &domain.DimensionError{
				Stage:    domain.ErrRetrieval,
				Expected: len(query),
				Got:      len(entry.Vector),
			}
		}
		scores[i] = domain.ScoredChunk{
			ID:    entry.ID,
			Text:  entry.Chunk,
			Score: CosineSimilarity(query, entry.Vector),
		}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})

	if k > len(scores) {
		k = len(scores)
	}
	return scores[:k], nil
}
