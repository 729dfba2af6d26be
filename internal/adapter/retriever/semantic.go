package retriever

import (
	"context"
	"fmt"

	"docrag/internal/domain"
	"docrag/internal/port"
)

// SemanticRetriever embeds the query, reads the whole corpus and ranks it.
// The corpus is re-read on every search; nothing is cached.
type SemanticRetriever struct {
	embedder port.Embedder
	store    port.ChunkStore
	ranker   port.Ranker
}

func NewSemanticRetriever(
	embedder port.Embedder,
	store port.ChunkStore,
	ranker port.Ranker,
) *SemanticRetriever {
	if ranker == nil {
		ranker = NewCosineRanker()
	}
	return &SemanticRetriever{
		embedder: embedder,
		store:    store,
		ranker:   ranker,
	}
}

func (r *SemanticRetriever) Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	if r.store == nil || r.embedder == nil {
		return nil, fmt.Errorf("%w: semantic search not available: embeddings not configured", domain.ErrRetrieval)
	}

	queryVector, err := r.embedder.Embed(ctx, query, port.ModeQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(queryVector) == 0 {
		return nil, fmt.Errorf("%w: embedding returned empty result", domain.ErrEmbedding)
	}

	entries, err := r.store.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch corpus: %w", err)
	}

	return r.ranker.Rank(queryVector, entries, k)
}
