package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"docrag/internal/domain"
	"docrag/internal/port"
)

const geminiMaxBatch = 100

// GeminiEmbedder embeds text with the Gemini embedding models. The embed mode
// maps to the API task type so document and query vectors are asymmetric.
type GeminiEmbedder struct {
	client    *genai.Client
	model     string
	dimension int
}

type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	// Dimension of the returned vectors. Zero uses the model's native size.
	Dimension int
	Timeout   time.Duration
}

func NewGeminiEmbedder(cfg GeminiConfig) (*GeminiEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key is missing", domain.ErrEmbedding)
	}
	model := cfg.Model
	if model == "" {
		model = "models/embedding-001"
	}
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}
	dimension := cfg.Dimension
	if dimension == 0 {
		dimension = geminiDimension(model)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  &http.Client{Timeout: timeout},
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create gemini client: %v", domain.ErrEmbedding, err)
	}

	return &GeminiEmbedder{
		client:    client,
		model:     model,
		dimension: dimension,
	}, nil
}

func geminiDimension(model string) int {
	switch strings.TrimPrefix(model, "models/") {
	case "gemini-embedding-001", "gemini-embedding-exp-03-07":
		return 3072
	default:
		return 768
	}
}

func taskType(mode port.EmbedMode) string {
	if mode == port.ModeQuery {
		return "RETRIEVAL_QUERY"
	}
	return "RETRIEVAL_DOCUMENT"
}

func (e *GeminiEmbedder) config(mode port.EmbedMode) *genai.EmbedContentConfig {
	cfg := &genai.EmbedContentConfig{TaskType: taskType(mode)}
	// embedding-001 has a fixed size and rejects outputDimensionality.
	if e.model != "models/embedding-001" {
		dim := int32(e.dimension)
		cfg.OutputDimensionality = &dim
	}
	return cfg
}

func (e *GeminiEmbedder) Embed(ctx context.Context, text string, mode port.EmbedMode) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: cannot embed empty text", domain.ErrEmbedding)
	}
	vectors, err := e.EmbedBatch(ctx, []string{text}, mode)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string, mode port.EmbedMode) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	all := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += geminiMaxBatch {
		end := min(i+geminiMaxBatch, len(texts))

		contents := make([]*genai.Content, 0, end-i)
		for _, text := range texts[i:end] {
			contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
		}

		resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, e.config(mode))
		if err != nil {
			var apiErr genai.APIError
			if errors.As(err, &apiErr) {
				return nil, fmt.Errorf("%w: API error %d %s: %s", domain.ErrEmbedding, apiErr.Code, apiErr.Status, apiErr.Message)
			}
			return nil, fmt.Errorf("%w: %v", domain.ErrEmbedding, err)
		}
		if len(resp.Embeddings) != end-i {
			return nil, fmt.Errorf("%w: expected %d embeddings, got %d", domain.ErrEmbedding, end-i, len(resp.Embeddings))
		}
		for j, emb := range resp.Embeddings {
			if emb == nil || len(emb.Values) == 0 {
				return nil, fmt.Errorf("%w: no embedding returned for input %d", domain.ErrEmbedding, i+j)
			}
			all = append(all, emb.Values)
		}
	}

	return all, nil
}

func (e *GeminiEmbedder) Dimension() int {
	return e.dimension
}

func (e *GeminiEmbedder) ModelName() string {
	return e.model
}
