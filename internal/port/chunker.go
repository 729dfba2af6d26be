package port

// Chunker splits extracted document text into ordered chunks.
type Chunker interface {
	Split(text string) []string
}
