package port

// Extractor turns raw document bytes into plain text.
type Extractor interface {
	// Extract selects a format by filename suffix.
	Extract(data []byte, filename string) (string, error)
}
