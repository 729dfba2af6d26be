package port

import "context"

// Generator produces an answer to a question from retrieved context.
type Generator interface {
	// Generate answers question using contextChunks in rank order.
	Generate(ctx context.Context, contextChunks []string, question string) (string, error)

	// Prompt sends a raw prompt without any retrieved context.
	Prompt(ctx context.Context, prompt string) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}
