package llm

import (
	"context"
	"strings"
)

// EchoGenerator answers without a model by returning the best matching
// chunk. Useful offline and in tests.
type EchoGenerator struct{}

func NewEchoGenerator() *EchoGenerator {
	return &EchoGenerator{}
}

func (g *EchoGenerator) Generate(ctx context.Context, contextChunks []string, question string) (string, error) {
	if len(contextChunks) == 0 {
		return "No relevant context found for: " + question, nil
	}
	return contextChunks[0], nil
}

func (g *EchoGenerator) Prompt(ctx context.Context, prompt string) (string, error) {
	return strings.TrimSpace(prompt), nil
}

func (g *EchoGenerator) ModelName() string {
	return "echo"
}
