package embedding

import (
	"context"
	"time"

	"docrag/internal/port"
)

// TimeoutEmbedder gives every embed call its own deadline.
type TimeoutEmbedder struct {
	port.Embedder
	timeout time.Duration
}

// timeoutBatchEmbedder keeps EmbedBatch visible when the wrapped embedder
// supports it.
type timeoutBatchEmbedder struct {
	*TimeoutEmbedder
	batch port.BatchEmbedder
}

// WithTimeout wraps e so each call gets at most d. A non-positive d returns e.
func WithTimeout(e port.Embedder, d time.Duration) port.Embedder {
	if d <= 0 {
		return e
	}
	t := &TimeoutEmbedder{Embedder: e, timeout: d}
	if b, ok := e.(port.BatchEmbedder); ok {
		return &timeoutBatchEmbedder{TimeoutEmbedder: t, batch: b}
	}
	return t
}

func (t *TimeoutEmbedder) Embed(ctx context.Context, text string, mode port.EmbedMode) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.Embedder.Embed(ctx, text, mode)
}

func (t *timeoutBatchEmbedder) EmbedBatch(ctx context.Context, texts []string, mode port.EmbedMode) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.batch.EmbedBatch(ctx, texts, mode)
}
