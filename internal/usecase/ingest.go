package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"docrag/internal/domain"
	"docrag/internal/port"
)

// IngestUseCase turns documents into corpus entries.
type IngestUseCase struct {
	extractor port.Extractor
	chunker   port.Chunker
	embedder  port.Embedder
	store     port.ChunkStore
	logger    *slog.Logger
}

// NewIngestUseCase creates a new ingest use case.
func NewIngestUseCase(
	extractor port.Extractor,
	chunker port.Chunker,
	embedder port.Embedder,
	store port.ChunkStore,
	logger *slog.Logger,
) *IngestUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestUseCase{
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		store:     store,
		logger:    logger,
	}
}

// IngestResult contains the results of an ingestion.
type IngestResult struct {
	Filename string
	Chunks   int
	IDs      []string
}

// ProgressFunc is called after each committed chunk.
type ProgressFunc func(committed, total int)

// ingestBatchSize bounds how many chunks are embedded per provider call when
// the embedder supports batching.
const ingestBatchSize = 16

// Ingest extracts, splits, embeds and stores doc in chunk order. If a chunk
// fails, the chunks before it remain stored and the error is an
// *domain.IngestError. With a batching embedder a failed embed call reports
// the first chunk of its batch, and none of that batch is stored.
func (u *IngestUseCase) Ingest(ctx context.Context, doc domain.Document, progress ProgressFunc) (*IngestResult, error) {
	text, err := u.extractor.Extract(doc.Content, doc.Filename)
	if err != nil {
		return nil, fmt.Errorf("failed to extract %s: %w", doc.Filename, err)
	}

	chunks := u.chunker.Split(text)
	result := &IngestResult{
		Filename: doc.Filename,
		IDs:      make([]string, 0, len(chunks)),
	}
	if len(chunks) == 0 {
		u.logger.Warn("document has no text", "filename", doc.Filename)
		return result, nil
	}

	u.logger.Info("ingesting document", "filename", doc.Filename, "chunks", len(chunks))

	fail := func(i int, err error) (*IngestResult, error) {
		u.logger.Error("ingestion interrupted",
			"filename", doc.Filename, "chunk", i, "committed", result.Chunks, "error", err)
		return result, &domain.IngestError{
			ChunkIndex: i,
			Committed:  result.Chunks,
			Total:      len(chunks),
			Err:        err,
		}
	}

	for start := 0; start < len(chunks); start += u.batchSize() {
		end := min(start+u.batchSize(), len(chunks))

		vectors, err := u.embedChunks(ctx, chunks[start:end])
		if err != nil {
			return fail(start+len(vectors), err)
		}

		for i, chunk := range chunks[start:end] {
			id, err := u.store.Insert(ctx, chunk, vectors[i])
			if err != nil {
				return fail(start+i, fmt.Errorf("failed to store chunk: %w", err))
			}
			result.IDs = append(result.IDs, id)
			result.Chunks++
			if progress != nil {
				progress(result.Chunks, len(chunks))
			}
		}
	}

	return result, nil
}

func (u *IngestUseCase) batchSize() int {
	if _, ok := u.embedder.(port.BatchEmbedder); ok {
		return ingestBatchSize
	}
	return 1
}

// embedChunks returns one document vector per chunk. On error the returned
// vectors are those that precede the failing chunk.
func (u *IngestUseCase) embedChunks(ctx context.Context, chunks []string) ([][]float32, error) {
	if batch, ok := u.embedder.(port.BatchEmbedder); ok && len(chunks) > 1 {
		vectors, err := batch.EmbedBatch(ctx, chunks, port.ModeDocument)
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunks: %w", err)
		}
		if len(vectors) != len(chunks) {
			return nil, fmt.Errorf("failed to embed chunks: %w: expected %d vectors, got %d",
				domain.ErrEmbedding, len(chunks), len(vectors))
		}
		return vectors, nil
	}

	vectors := make([][]float32, 0, len(chunks))
	for _, chunk := range chunks {
		vector, err := u.embedder.Embed(ctx, chunk, port.ModeDocument)
		if err != nil {
			return vectors, fmt.Errorf("failed to embed chunk: %w", err)
		}
		vectors = append(vectors, vector)
	}
	return vectors, nil
}
