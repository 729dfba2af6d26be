package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"docrag/internal/domain"
)

// MemoryStore is an in-process chunk store. It is safe for concurrent use and
// keeps entries in insertion order.
type MemoryStore struct {
	mu        sync.RWMutex
	entries   []domain.CorpusEntry
	dimension int
}

// NewMemoryStore creates an empty store. A zero dimension is established by
// the first insert.
func NewMemoryStore(dimension int) *MemoryStore {
	return &MemoryStore{dimension: dimension}
}

func (s *MemoryStore) Insert(ctx context.Context, chunk string, vector []float32) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrStore, err)
	}
	if len(vector) == 0 {
		return "", fmt.Errorf("%w: empty vector", domain.ErrStore)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := domain.CheckDimension(domain.ErrStore, s.dimension, len(vector)); err != nil {
		return "", err
	}
	if s.dimension == 0 {
		s.dimension = len(vector)
	}

	stored := make([]float32, len(vector))
	copy(stored, vector)

	id := uuid.NewString()
	s.entries = append(s.entries, domain.CorpusEntry{
		ID:     id,
		Chunk:  chunk,
		Vector: stored,
	})
	return id, nil
}

// FetchAll returns a snapshot; later inserts do not affect it.
func (s *MemoryStore) FetchAll(ctx context.Context) ([]domain.CorpusEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStore, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.CorpusEntry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

func (s *MemoryStore) Stats(ctx context.Context) (domain.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Stats{Entries: len(s.entries), Dimension: s.dimension}, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
