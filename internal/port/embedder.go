package port

import "context"

// EmbedMode tells the provider how the vector will be used. Providers with
// asymmetric models may return different vectors for the same text.
type EmbedMode int

const (
	ModeDocument EmbedMode = iota
	ModeQuery
)

func (m EmbedMode) String() string {
	if m == ModeQuery {
		return "query"
	}
	return "document"
}

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed returns the embedding of text for the given mode.
	Embed(ctx context.Context, text string, mode EmbedMode) ([]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// BatchEmbedder is implemented by embedders that can embed several texts in
// one provider call. Results are in input order.
type BatchEmbedder interface {
	Embedder
	EmbedBatch(ctx context.Context, texts []string, mode EmbedMode) ([][]float32, error)
}
