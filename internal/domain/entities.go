package domain

// Document is an uploaded file awaiting extraction. The filename only selects
// the extractor; content is never sniffed.
type Document struct {
	Filename string
	Content  []byte
}

// CorpusEntry is a chunk and its embedding as persisted by a chunk store.
type CorpusEntry struct {
	ID     string
	Chunk  string
	Vector []float32
}

type Query struct {
	Text string
	K    int
}

// DefaultTopK is the number of chunks retrieved when a query does not say.
const DefaultTopK = 3

type ScoredChunk struct {
	ID    string  `json:"id"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Answer is the result of a retrieval-augmented question.
type Answer struct {
	Query         string        `json:"query"`
	MatchedChunks []ScoredChunk `json:"matched_chunks"`
	Response      string        `json:"response"`
}

// Texts returns the chunk texts in rank order.
func Texts(chunks []ScoredChunk) []string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return texts
}

type Stats struct {
	Entries   int `json:"entries"`
	Dimension int `json:"dimension"`
}
