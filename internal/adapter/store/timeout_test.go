package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"docrag/internal/domain"
	"docrag/internal/port"
)

// blockingStore waits for the context on every call.
type blockingStore struct{}

func (blockingStore) Insert(ctx context.Context, chunk string, vector []float32) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (blockingStore) FetchAll(ctx context.Context) ([]domain.CorpusEntry, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestWithTimeout(t *testing.T) {
	var inner blockingStore
	if got := WithTimeout(inner, 0); got != port.ChunkStore(inner) {
		t.Error("non-positive timeout should return the store unchanged")
	}

	s := WithTimeout(inner, 10*time.Millisecond)
	if _, err := s.Insert(context.Background(), "x", []float32{1}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Insert error = %v, want deadline exceeded", err)
	}
	if _, err := s.FetchAll(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("FetchAll error = %v, want deadline exceeded", err)
	}

	stats, ok := s.(port.StatsStore)
	if !ok {
		t.Fatal("TimeoutStore should implement StatsStore")
	}
	if _, err := stats.Stats(context.Background()); !errors.Is(err, ErrStatsUnsupported) {
		t.Errorf("Stats error = %v, want ErrStatsUnsupported", err)
	}
}

func TestWithTimeoutStatsPassthrough(t *testing.T) {
	s, err := NewBoltStore(t.TempDir()+"/corpus.db", 0)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ctx := context.Background()
	wrapped := WithTimeout(s, time.Second)
	if _, err := wrapped.Insert(ctx, "alpha", []float32{1, 0}); err != nil {
		t.Fatal(err)
	}
	got, err := wrapped.(port.StatsStore).Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.Entries != 1 || got.Dimension != 2 {
		t.Errorf("Stats = %+v, want 1 entry of dimension 2", got)
	}
}
