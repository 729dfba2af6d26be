package port

import "context"

// Fetcher downloads a remote document and returns its bytes and a filename
// suitable for extractor selection.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, string, error)
}
