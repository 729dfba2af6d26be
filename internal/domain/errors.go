package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file type")
	ErrEmbedding         = errors.New("embedding failed")
	ErrStore             = errors.New("chunk store failed")
	ErrRetrieval         = errors.New("retrieval failed")
	ErrDownload          = errors.New("failed to download document")
	ErrGeneration        = errors.New("generation failed")

	// ErrDimensionMismatch is returned when a vector's length disagrees with
	// the corpus dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// DimensionError reports a vector whose length differs from the expected one.
// It matches ErrDimensionMismatch and the stage sentinel it was raised under.
type DimensionError struct {
	Stage    error
	Expected int
	Got      int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%v: %v: expected %d, got %d", e.Stage, ErrDimensionMismatch, e.Expected, e.Got)
}

func (e *DimensionError) Unwrap() []error {
	return []error{e.Stage, ErrDimensionMismatch}
}

// IngestError reports an ingestion that stopped part way. Chunks before
// ChunkIndex were committed and stay in the corpus.
type IngestError struct {
	ChunkIndex int
	Committed  int
	Total      int
	Err        error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("ingest interrupted at chunk %d of %d (%d committed): %v",
		e.ChunkIndex, e.Total, e.Committed, e.Err)
}

func (e *IngestError) Unwrap() error {
	return e.Err
}

// CheckDimension returns a DimensionError under stage when got differs from
// expected. An expected dimension of zero means none is established yet.
func CheckDimension(stage error, expected, got int) error {
	if expected != 0 && got != expected {
		return &DimensionError{Stage: stage, Expected: expected, Got: got}
	}
	return nil
}
