package chunker

import (
	"strings"

	"docrag/internal/port"
)

// DefaultMaxTokens is the chunk size used when none is configured.
const DefaultMaxTokens = 500

// WordChunker splits text into non-overlapping windows of maxTokens
// whitespace-delimited words. The last window holds the remainder.
type WordChunker struct {
	maxTokens int
	tokenizer port.Tokenizer
}

func NewWordChunker(maxTokens int, tokenizer port.Tokenizer) *WordChunker {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &WordChunker{
		maxTokens: maxTokens,
		tokenizer: tokenizer,
	}
}

func (c *WordChunker) MaxTokens() int {
	return c.maxTokens
}

func (c *WordChunker) Split(text string) []string {
	words := c.tokenizer.Tokenize(text)
	if len(words) == 0 {
		return nil
	}

	chunks := make([]string, 0, (len(words)+c.maxTokens-1)/c.maxTokens)
	for start := 0; start < len(words); start += c.maxTokens {
		end := start + c.maxTokens
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}

	return chunks
}
