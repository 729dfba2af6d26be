package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestDimensionErrorMatchesStage(t *testing.T) {
	err := fmt.Errorf("insert: %w", &DimensionError{Stage: ErrStore, Expected: 768, Got: 2})

	if !errors.Is(err, ErrStore) {
		t.Error("expected error to match ErrStore")
	}
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Error("expected error to match ErrDimensionMismatch")
	}
	if errors.Is(err, ErrRetrieval) {
		t.Error("did not expect error to match ErrRetrieval")
	}
	if !strings.Contains(err.Error(), "expected 768, got 2") {
		t.Errorf("unexpected message: %s", err)
	}
}

func TestIngestErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("%w: quota exceeded", ErrEmbedding)
	err := error(&IngestError{ChunkIndex: 2, Committed: 2, Total: 5, Err: cause})

	if !errors.Is(err, ErrEmbedding) {
		t.Error("expected IngestError to unwrap to ErrEmbedding")
	}

	var ie *IngestError
	if !errors.As(err, &ie) {
		t.Fatal("expected errors.As to find IngestError")
	}
	if ie.Committed != 2 || ie.ChunkIndex != 2 {
		t.Errorf("unexpected fields: %+v", ie)
	}
	if !strings.Contains(err.Error(), "chunk 2 of 5") {
		t.Errorf("unexpected message: %s", err)
	}
}

func TestTexts(t *testing.T) {
	got := Texts([]ScoredChunk{{Text: "a"}, {Text: "b"}})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("unexpected texts: %v", got)
	}
	if got := Texts(nil); len(got) != 0 {
		t.Errorf("expected empty, got %v", got)
	}
}

func TestCheckDimension(t *testing.T) {
	if err := CheckDimension(ErrStore, 0, 5); err != nil {
		t.Errorf("unestablished dimension should accept anything, got %v", err)
	}
	if err := CheckDimension(ErrStore, 3, 3); err != nil {
		t.Errorf("matching dimension should pass, got %v", err)
	}
	err := CheckDimension(ErrRetrieval, 3, 4)
	if !errors.Is(err, ErrRetrieval) || !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected retrieval dimension error, got %v", err)
	}
}
