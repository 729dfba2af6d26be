package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"docrag/internal/domain"
	"docrag/internal/port"
)

// OpenAIEmbedder uses the OpenAI embeddings API or any compatible server
// (Ollama, DeepSeek, Jina) reached through BaseURL.
type OpenAIEmbedder struct {
	client         *openai.Client
	model          string
	dimension      int
	documentPrefix string
	queryPrefix    string
}

type OpenAIConfig struct {
	APIKey    string
	Model     string
	BaseURL   string
	Dimension int

	// Prefixes let asymmetric models served over the OpenAI API tell
	// documents from queries, e.g. "search_document: " for nomic-embed-text.
	DocumentPrefix string
	QueryPrefix    string
}

func NewOpenAIEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: API key is missing", domain.ErrEmbedding)
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}

	dimension := cfg.Dimension
	if dimension == 0 {
		dimension = defaultDimension(model)
	}

	return &OpenAIEmbedder{
		client:         openai.NewClientWithConfig(clientCfg),
		model:          model,
		dimension:      dimension,
		documentPrefix: cfg.DocumentPrefix,
		queryPrefix:    cfg.QueryPrefix,
	}, nil
}

// NewOllamaEmbedder talks to a local Ollama server through its OpenAI
// compatible endpoint.
func NewOllamaEmbedder(model, baseURL string, dimension int) (*OpenAIEmbedder, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434/v1"
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	cfg := OpenAIConfig{
		APIKey:    "ollama",
		Model:     model,
		BaseURL:   baseURL,
		Dimension: dimension,
	}
	if model == "nomic-embed-text" {
		cfg.DocumentPrefix = "search_document: "
		cfg.QueryPrefix = "search_query: "
	}
	return NewOpenAIEmbedder(cfg)
}

func defaultDimension(model string) int {
	switch model {
	case "text-embedding-3-large":
		return 3072
	case "nomic-embed-text":
		return 768
	case "mxbai-embed-large":
		return 1024
	case "all-minilm":
		return 384
	default:
		return 1536
	}
}

func (e *OpenAIEmbedder) prefix(mode port.EmbedMode) string {
	if mode == port.ModeQuery {
		return e.queryPrefix
	}
	return e.documentPrefix
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string, mode port.EmbedMode) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: cannot embed empty text", domain.ErrEmbedding)
	}
	vectors, err := e.EmbedBatch(ctx, []string{text}, mode)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string, mode port.EmbedMode) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	input := make([]string, len(texts))
	for i, text := range texts {
		input[i] = e.prefix(mode) + text
	}

	req := openai.EmbeddingRequest{
		Input: input,
		Model: openai.EmbeddingModel(e.model),
	}
	if strings.HasPrefix(e.model, "text-embedding-3") {
		req.Dimensions = e.dimension
	}

	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("%w: API error %d: %s", domain.ErrEmbedding, apiErr.HTTPStatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbedding, err)
	}

	embeddings := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index >= 0 && data.Index < len(embeddings) {
			embeddings[data.Index] = data.Embedding
		}
	}
	for i, emb := range embeddings {
		if len(emb) == 0 {
			return nil, fmt.Errorf("%w: no embedding returned for input %d", domain.ErrEmbedding, i)
		}
	}

	return embeddings, nil
}

func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}
