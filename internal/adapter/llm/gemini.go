package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"docrag/internal/domain"
)

// GeminiGenerator answers prompts through the Gemini generateContent API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

type GeminiConfig struct {
	APIKey string
	Model  string
	// BaseURL overrides the API host, e.g. for a proxy. The API version is
	// appended by the client.
	BaseURL string
	Timeout time.Duration
}

func NewGeminiGenerator(cfg GeminiConfig) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key is missing", domain.ErrGeneration)
	}
	model := strings.TrimPrefix(cfg.Model, "models/")
	if model == "" {
		model = "gemini-2.5-pro"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  &http.Client{Timeout: timeout},
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create gemini client: %v", domain.ErrGeneration, err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, contextChunks []string, question string) (string, error) {
	return g.Prompt(ctx, BuildPrompt(contextChunks, question))
}

func (g *GeminiGenerator) Prompt(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: API error %d %s: %s", domain.ErrGeneration, apiErr.Code, apiErr.Status, apiErr.Message)
		}
		return "", fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked: %s", domain.ErrGeneration, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates returned", domain.ErrGeneration)
	}
	return resp.Text(), nil
}

func (g *GeminiGenerator) ModelName() string {
	return g.model
}
