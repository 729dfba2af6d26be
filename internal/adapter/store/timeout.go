package store

import (
	"context"
	"errors"
	"time"

	"docrag/internal/domain"
	"docrag/internal/port"
)

// ErrStatsUnsupported is returned by Stats on backends that cannot count
// entries without a full fetch.
var ErrStatsUnsupported = errors.New("store does not report stats")

// TimeoutStore bounds every call on the wrapped store with its own deadline.
type TimeoutStore struct {
	inner   port.ChunkStore
	timeout time.Duration
}

// WithTimeout wraps s so each call gets at most d. A non-positive d returns s.
func WithTimeout(s port.ChunkStore, d time.Duration) port.ChunkStore {
	if d <= 0 {
		return s
	}
	return &TimeoutStore{inner: s, timeout: d}
}

func (t *TimeoutStore) Insert(ctx context.Context, chunk string, vector []float32) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Insert(ctx, chunk, vector)
}

func (t *TimeoutStore) FetchAll(ctx context.Context) ([]domain.CorpusEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.FetchAll(ctx)
}

func (t *TimeoutStore) Stats(ctx context.Context) (domain.Stats, error) {
	ss, ok := t.inner.(port.StatsStore)
	if !ok {
		return domain.Stats{}, ErrStatsUnsupported
	}
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return ss.Stats(ctx)
}
