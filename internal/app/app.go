// Package app wires configuration into the concrete adapters and use cases.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"docrag/config"
	"docrag/internal/adapter/analyzer"
	"docrag/internal/adapter/chunker"
	"docrag/internal/adapter/embedding"
	"docrag/internal/adapter/extractor"
	"docrag/internal/adapter/fetch"
	"docrag/internal/adapter/llm"
	"docrag/internal/adapter/memstore"
	"docrag/internal/adapter/retriever"
	"docrag/internal/adapter/store"
	"docrag/internal/port"
	"docrag/internal/usecase"
)

const ollamaBaseURL = "http://localhost:11434/v1"

// App holds the wired components for one process.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Embedder  port.Embedder
	Generator port.Generator
	Store     port.ChunkStore
	Ingest    *usecase.IngestUseCase
	Retrieve  *usecase.RetrieveUseCase
	Answer    *usecase.AnswerUseCase

	closers []io.Closer
}

// Options selects which parts of the pipeline to build.
type Options struct {
	// SkipGenerator builds no generator. Answer and Run are unusable.
	SkipGenerator bool
}

// Open builds the pipeline described by cfg. Relative store paths resolve
// against rootDir.
func Open(ctx context.Context, cfg *config.Config, rootDir string, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	emb, err := NewEmbedder(cfg.Embedding)
	if err != nil {
		return nil, err
	}
	a.Embedder = embedding.WithTimeout(emb, cfg.Embedding.Timeout)

	if !opts.SkipGenerator {
		gen, err := NewGenerator(cfg.Generation)
		if err != nil {
			return nil, err
		}
		a.Generator = gen
	}

	st, err := a.openStore(ctx, rootDir, emb.Dimension())
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Store = store.WithTimeout(st, cfg.Store.Timeout)

	chk := chunker.NewWordChunker(cfg.Chunk.MaxTokens, analyzer.NewTokenizer())
	a.Ingest = usecase.NewIngestUseCase(extractor.New(), chk, a.Embedder, a.Store, logger)
	a.Retrieve = usecase.NewRetrieveUseCase(
		retriever.NewSemanticRetriever(a.Embedder, a.Store, retriever.NewCosineRanker()),
		cfg.Retrieve.TopK,
		logger,
	)
	if a.Generator != nil {
		downloader := fetch.NewDownloader(cfg.Server.DownloadTimeout, cfg.Server.MaxUploadBytes)
		a.Answer = usecase.NewAnswerUseCase(a.Retrieve, a.Ingest, a.Generator, downloader, logger)
	}

	return a, nil
}

// Close releases the store.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	return errors.Join(errs...)
}

// Stats reports corpus size and dimension. Backends without cheap counting
// fall back to a full fetch.
func (a *App) Stats(ctx context.Context) (int, int, error) {
	if ss, ok := a.Store.(port.StatsStore); ok {
		stats, err := ss.Stats(ctx)
		if err == nil {
			return stats.Entries, stats.Dimension, nil
		}
		if !errors.Is(err, store.ErrStatsUnsupported) {
			return 0, 0, err
		}
	}

	entries, err := a.Store.FetchAll(ctx)
	if err != nil {
		return 0, 0, err
	}
	dimension := 0
	if len(entries) > 0 {
		dimension = len(entries[0].Vector)
	}
	return len(entries), dimension, nil
}

func (a *App) openStore(ctx context.Context, rootDir string, dimension int) (port.ChunkStore, error) {
	cfg := a.Config
	switch cfg.Store.Backend {
	case "bolt":
		if err := cfg.EnsureStoreDir(rootDir); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
		st, err := store.NewBoltStore(cfg.StorePath(rootDir), dimension)
		if err != nil {
			return nil, fmt.Errorf("failed to open corpus: %w", err)
		}
		a.closers = append(a.closers, st)

		check, err := st.CheckEmbeddingModel(a.Embedder.ModelName())
		if err != nil {
			return nil, err
		}
		if check.NeedsRebuild {
			a.Logger.Warn("corpus needs rebuild", "reason", check.Reason, "path", cfg.StorePath(rootDir))
		}
		return st, nil

	case "sqlite":
		if err := cfg.EnsureStoreDir(rootDir); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
		st, err := store.NewSQLiteStore(ctx, cfg.StorePath(rootDir), cfg.Store.Table, dimension)
		if err != nil {
			return nil, fmt.Errorf("failed to open corpus: %w", err)
		}
		a.closers = append(a.closers, st)
		return st, nil

	case "supabase":
		return store.NewSupabaseStore(store.SupabaseConfig{
			URL:       cfg.Store.Supabase.URL,
			APIKey:    config.Secret(cfg.Store.Supabase.KeyEnv),
			Table:     cfg.Store.Table,
			Dimension: dimension,
			Timeout:   cfg.Store.Timeout,
		})

	case "memory":
		return memstore.NewMemoryStore(dimension), nil
	}
	return nil, fmt.Errorf("unsupported store backend: %s", cfg.Store.Backend)
}

// NewEmbedder creates the embedder named by cfg.Provider.
func NewEmbedder(cfg config.EmbeddingConfig) (port.Embedder, error) {
	switch cfg.Provider {
	case "gemini":
		return embedding.NewGeminiEmbedder(embedding.GeminiConfig{
			APIKey:    config.Secret(cfg.KeyEnv()),
			Model:     cfg.Model,
			BaseURL:   cfg.BaseURL,
			Dimension: cfg.Dimension,
			Timeout:   cfg.Timeout,
		})
	case "openai":
		return embedding.NewOpenAIEmbedder(embedding.OpenAIConfig{
			APIKey:    config.Secret(cfg.KeyEnv()),
			Model:     openAIModel(cfg.Model, ""),
			BaseURL:   cfg.BaseURL,
			Dimension: cfg.Dimension,
		})
	case "ollama":
		return embedding.NewOllamaEmbedder(openAIModel(cfg.Model, "nomic-embed-text"), cfg.BaseURL, cfg.Dimension)
	case "mock":
		return embedding.NewMockEmbedder(cfg.Dimension), nil
	}
	return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
}

// NewGenerator creates the generator named by cfg.Provider.
func NewGenerator(cfg config.GenerationConfig) (port.Generator, error) {
	switch cfg.Provider {
	case "gemini":
		return llm.NewGeminiGenerator(llm.GeminiConfig{
			APIKey:  config.Secret(cfg.KeyEnv()),
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		})
	case "openai":
		return llm.NewOpenAIGenerator(llm.OpenAIConfig{
			APIKey:  config.Secret(cfg.KeyEnv()),
			Model:   openAIModel(cfg.Model, ""),
			BaseURL: cfg.BaseURL,
		})
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = ollamaBaseURL
		}
		return llm.NewOpenAIGenerator(llm.OpenAIConfig{
			APIKey:  "ollama",
			Model:   openAIModel(cfg.Model, "llama3.2"),
			BaseURL: baseURL,
		})
	case "echo":
		return llm.NewEchoGenerator(), nil
	}
	return nil, fmt.Errorf("unsupported generation provider: %s", cfg.Provider)
}

// openAIModel drops Gemini model names left over from the defaults so the
// OpenAI-compatible adapters fall back to their own.
func openAIModel(model, fallback string) string {
	if model == "" || strings.HasPrefix(model, "models/") || strings.HasPrefix(model, "gemini") {
		return fallback
	}
	return model
}

// NewLogger builds the process logger from the logging section.
func NewLogger(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
