package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"docrag/internal/adapter/analyzer"
	"docrag/internal/adapter/chunker"
	"docrag/internal/adapter/embedding"
	"docrag/internal/adapter/extractor"
	"docrag/internal/adapter/memstore"
	"docrag/internal/adapter/retriever"
	"docrag/internal/domain"
	"docrag/internal/port"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// failingStore fails the insert with the given 1-based ordinal.
type failingStore struct {
	port.ChunkStore
	failAt  int
	inserts int
}

func (s *failingStore) Insert(ctx context.Context, chunk string, vector []float32) (string, error) {
	s.inserts++
	if s.inserts == s.failAt {
		return "", domain.ErrStore
	}
	return s.ChunkStore.Insert(ctx, chunk, vector)
}

// failingBatchEmbedder fails the EmbedBatch call with the given 1-based ordinal.
type failingBatchEmbedder struct {
	*embedding.MockEmbedder
	failAt int
	calls  int
	sizes  []int
}

func (e *failingBatchEmbedder) EmbedBatch(ctx context.Context, texts []string, mode port.EmbedMode) ([][]float32, error) {
	e.calls++
	e.sizes = append(e.sizes, len(texts))
	if e.calls == e.failAt {
		return nil, fmt.Errorf("%w: quota exceeded", domain.ErrEmbedding)
	}
	return e.MockEmbedder.EmbedBatch(ctx, texts, mode)
}

type fakeFetcher struct {
	data     []byte
	filename string
	err      error
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	return f.data, f.filename, f.err
}

type recordingGenerator struct {
	contexts  [][]string
	questions []string
	reply     string
	err       error
}

func (g *recordingGenerator) Generate(ctx context.Context, contextChunks []string, question string) (string, error) {
	g.contexts = append(g.contexts, contextChunks)
	g.questions = append(g.questions, question)
	return g.reply, g.err
}

func (g *recordingGenerator) Prompt(ctx context.Context, prompt string) (string, error) {
	g.questions = append(g.questions, prompt)
	return g.reply, g.err
}

func (g *recordingGenerator) ModelName() string {
	return "recording"
}

type pipeline struct {
	store    *memstore.MemoryStore
	ingest   *IngestUseCase
	retrieve *RetrieveUseCase
}

func newPipeline(maxTokens int, st port.ChunkStore) pipeline {
	mem := memstore.NewMemoryStore(0)
	if st == nil {
		st = mem
	}
	emb := embedding.NewMockEmbedder(256)
	chk := chunker.NewWordChunker(maxTokens, analyzer.NewTokenizer())
	logger := discardLogger()
	return pipeline{
		store:    mem,
		ingest:   NewIngestUseCase(extractor.New(), chk, emb, st, logger),
		retrieve: NewRetrieveUseCase(retriever.NewSemanticRetriever(emb, st, nil), 0, logger),
	}
}

func TestIngestStoresChunksInOrder(t *testing.T) {
	p := newPipeline(2, nil)
	ctx := context.Background()

	var progress []int
	result, err := p.ingest.Ingest(ctx, domain.Document{
		Filename: "notes.TXT",
		Content:  []byte("one two three four five"),
	}, func(committed, total int) {
		if total != 3 {
			t.Errorf("expected total 3, got %d", total)
		}
		progress = append(progress, committed)
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Chunks != 3 || len(result.IDs) != 3 {
		t.Fatalf("expected 3 chunks, got %+v", result)
	}
	if len(progress) != 3 || progress[2] != 3 {
		t.Errorf("unexpected progress %v", progress)
	}

	entries, err := p.store.FetchAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"one two", "three four", "five"}
	for i, e := range entries {
		if e.Chunk != want[i] {
			t.Errorf("entry %d: expected %q, got %q", i, want[i], e.Chunk)
		}
		if e.ID != result.IDs[i] {
			t.Errorf("entry %d: id %s does not match result %s", i, e.ID, result.IDs[i])
		}
	}
}

func TestIngestEmptyAndUnsupported(t *testing.T) {
	p := newPipeline(0, nil)
	ctx := context.Background()

	result, err := p.ingest.Ingest(ctx, domain.Document{Filename: "blank.txt", Content: []byte(" \n\t ")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Chunks != 0 {
		t.Errorf("expected no chunks, got %d", result.Chunks)
	}

	_, err = p.ingest.Ingest(ctx, domain.Document{Filename: "image.png", Content: []byte("x")}, nil)
	if !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
	var ingestErr *domain.IngestError
	if errors.As(err, &ingestErr) {
		t.Error("extraction failure should not be reported as a partial ingest")
	}
}

func TestIngestPartialFailure(t *testing.T) {
	failing := &failingStore{failAt: 3}
	p := newPipeline(1, failing)
	failing.ChunkStore = p.store
	ctx := context.Background()

	result, err := p.ingest.Ingest(ctx, domain.Document{
		Filename: "five.txt",
		Content:  []byte("a b c d e"),
	}, nil)

	var ingestErr *domain.IngestError
	if !errors.As(err, &ingestErr) {
		t.Fatalf("expected *IngestError, got %v", err)
	}
	if ingestErr.ChunkIndex != 2 || ingestErr.Committed != 2 || ingestErr.Total != 5 {
		t.Errorf("unexpected ingest error %+v", ingestErr)
	}
	if !errors.Is(err, domain.ErrStore) {
		t.Errorf("expected error to wrap ErrStore, got %v", err)
	}
	if result == nil || result.Chunks != 2 {
		t.Errorf("expected partial result with 2 chunks, got %+v", result)
	}

	entries, err := p.store.FetchAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Chunk != "a" || entries[1].Chunk != "b" {
		t.Errorf("expected committed chunks [a b], got %+v", entries)
	}
}

func TestIngestBatchFailure(t *testing.T) {
	mem := memstore.NewMemoryStore(0)
	emb := &failingBatchEmbedder{MockEmbedder: embedding.NewMockEmbedder(16), failAt: 2}
	chk := chunker.NewWordChunker(1, analyzer.NewTokenizer())
	ingest := NewIngestUseCase(extractor.New(), chk, emb, mem, discardLogger())
	ctx := context.Background()

	words := make([]string, 40)
	for i := range words {
		words[i] = fmt.Sprintf("w%02d", i)
	}
	result, err := ingest.Ingest(ctx, domain.Document{
		Filename: "forty.txt",
		Content:  []byte(strings.Join(words, " ")),
	}, nil)

	var ingestErr *domain.IngestError
	if !errors.As(err, &ingestErr) {
		t.Fatalf("expected *IngestError, got %v", err)
	}
	if ingestErr.ChunkIndex != 16 || ingestErr.Committed != 16 || ingestErr.Total != 40 {
		t.Errorf("unexpected ingest error %+v", ingestErr)
	}
	if !errors.Is(err, domain.ErrEmbedding) {
		t.Errorf("expected error to wrap ErrEmbedding, got %v", err)
	}
	if result == nil || result.Chunks != 16 {
		t.Errorf("expected partial result with 16 chunks, got %+v", result)
	}
	if len(emb.sizes) != 2 || emb.sizes[0] != 16 || emb.sizes[1] != 16 {
		t.Errorf("expected two batches of 16, got %v", emb.sizes)
	}

	entries, err := mem.FetchAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 16 {
		t.Fatalf("expected 16 stored entries, got %d", len(entries))
	}
	for i, e := range entries {
		if e.Chunk != words[i] {
			t.Errorf("entry %d: expected %q, got %q", i, words[i], e.Chunk)
		}
	}
}

func TestRetrieve(t *testing.T) {
	p := newPipeline(3, nil)
	ctx := context.Background()

	_, err := p.ingest.Ingest(ctx, domain.Document{
		Filename: "fruit.txt",
		Content:  []byte("apple banana cherry dog elephant fox grape honey iris"),
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		query domain.Query
		want  int
		first string
	}{
		{"explicit k", domain.Query{Text: "dog elephant", K: 1}, 1, "dog elephant fox"},
		{"default k", domain.Query{Text: "grape honey"}, domain.DefaultTopK, "grape honey iris"},
		{"k beyond corpus", domain.Query{Text: "apple", K: 10}, 3, "apple banana cherry"},
		{"negative k", domain.Query{Text: "apple", K: -1}, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := p.retrieve.Retrieve(ctx, tt.query)
			if err != nil {
				t.Fatal(err)
			}
			if len(results) != tt.want {
				t.Fatalf("expected %d results, got %d", tt.want, len(results))
			}
			if tt.first != "" && results[0].Text != tt.first {
				t.Errorf("expected %q first, got %q", tt.first, results[0].Text)
			}
			for i := 1; i < len(results); i++ {
				if results[i].Score > results[i-1].Score {
					t.Errorf("results not sorted at %d", i)
				}
			}
		})
	}
}

func TestRetrieveEmptyCorpus(t *testing.T) {
	p := newPipeline(0, nil)
	results, err := p.retrieve.Retrieve(context.Background(), domain.Query{Text: "anything"})
	if err != nil {
		t.Fatal(err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("expected empty non-nil results, got %#v", results)
	}
}

func TestAnswer(t *testing.T) {
	p := newPipeline(3, nil)
	ctx := context.Background()
	if _, err := p.ingest.Ingest(ctx, domain.Document{
		Filename: "fruit.txt",
		Content:  []byte("apple banana cherry dog elephant fox"),
	}, nil); err != nil {
		t.Fatal(err)
	}

	gen := &recordingGenerator{reply: "It is a fox."}
	uc := NewAnswerUseCase(p.retrieve, p.ingest, gen, nil, discardLogger())

	answer, err := uc.Answer(ctx, "dog or fox", 1)
	if err != nil {
		t.Fatal(err)
	}
	if answer.Query != "dog or fox" || answer.Response != "It is a fox." {
		t.Errorf("unexpected answer %+v", answer)
	}
	if len(answer.MatchedChunks) != 1 || answer.MatchedChunks[0].Text != "dog elephant fox" {
		t.Errorf("unexpected matched chunks %+v", answer.MatchedChunks)
	}
	if len(gen.contexts) != 1 || gen.contexts[0][0] != "dog elephant fox" {
		t.Errorf("generator got context %v", gen.contexts)
	}

	gen.err = errors.New("quota exceeded")
	if _, err := uc.Answer(ctx, "anything", 1); err == nil {
		t.Error("expected generation error")
	}
}

func TestRun(t *testing.T) {
	p := newPipeline(4, nil)
	gen := &recordingGenerator{reply: "  thirty days \n"}
	fetcher := &fakeFetcher{
		data:     []byte("grace period is thirty days for premium payment"),
		filename: "policy.txt",
	}
	uc := NewAnswerUseCase(p.retrieve, p.ingest, gen, fetcher, discardLogger())
	ctx := context.Background()

	questions := []string{"What is the grace period?", "How long for premium payment?"}
	answers, err := uc.Run(ctx, "https://example.com/policy.txt?sig=1", questions)
	if err != nil {
		t.Fatal(err)
	}
	if len(answers) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(answers))
	}
	for i, a := range answers {
		if a != "thirty days" {
			t.Errorf("answer %d not trimmed: %q", i, a)
		}
	}
	if strings.Join(gen.questions, "|") != strings.Join(questions, "|") {
		t.Errorf("questions answered out of order: %v", gen.questions)
	}

	entries, _ := p.store.FetchAll(ctx)
	if len(entries) != 2 {
		t.Errorf("expected 2 ingested chunks, got %d", len(entries))
	}

	fetcher.err = domain.ErrDownload
	if _, err := uc.Run(ctx, "https://example.com/missing.pdf", questions); !errors.Is(err, domain.ErrDownload) {
		t.Errorf("expected ErrDownload, got %v", err)
	}
}

func TestPrompt(t *testing.T) {
	gen := &recordingGenerator{reply: "hello"}
	uc := NewAnswerUseCase(nil, nil, gen, nil, discardLogger())

	got, err := uc.Prompt(context.Background(), "say hello")
	if err != nil {
		t.Fatal(err)
	}
	if got != "hello" || gen.questions[0] != "say hello" {
		t.Errorf("unexpected prompt round trip: %q %v", got, gen.questions)
	}

	if _, err := NewAnswerUseCase(nil, nil, gen, nil, nil).Run(context.Background(), "u", nil); !errors.Is(err, domain.ErrDownload) {
		t.Errorf("expected ErrDownload without fetcher, got %v", err)
	}
}
