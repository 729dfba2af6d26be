package usecase

import (
	"context"
	"log/slog"

	"docrag/internal/domain"
	"docrag/internal/port"
)

// RetrieveUseCase handles search and retrieval operations.
type RetrieveUseCase struct {
	retriever port.Retriever
	defaultK  int
	logger    *slog.Logger
}

// NewRetrieveUseCase creates a new retrieve use case. A non-positive
// defaultK means domain.DefaultTopK.
func NewRetrieveUseCase(retriever port.Retriever, defaultK int, logger *slog.Logger) *RetrieveUseCase {
	if defaultK <= 0 {
		defaultK = domain.DefaultTopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RetrieveUseCase{
		retriever: retriever,
		defaultK:  defaultK,
		logger:    logger,
	}
}

// Retrieve returns the q.K chunks most similar to q.Text. A zero K uses the
// default; a negative K returns no chunks.
func (u *RetrieveUseCase) Retrieve(ctx context.Context, q domain.Query) ([]domain.ScoredChunk, error) {
	k := q.K
	if k == 0 {
		k = u.defaultK
	}

	results, err := u.retriever.Search(ctx, q.Text, k)
	if err != nil {
		return nil, err
	}

	u.logger.Debug("retrieved chunks", "k", k, "matched", len(results))
	return results, nil
}
