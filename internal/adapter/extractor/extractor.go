package extractor

import (
	"fmt"
	"strings"

	"docrag/internal/domain"
)

// Extractor dispatches on the filename suffix, case-insensitively.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// Supported reports whether filename has an extension Extract understands.
func Supported(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".pdf") || strings.HasSuffix(name, ".docx") || strings.HasSuffix(name, ".txt")
}

func (e *Extractor) Extract(data []byte, filename string) (string, error) {
	name := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(name, ".pdf"):
		return extractPDF(data)
	case strings.HasSuffix(name, ".docx"):
		return extractDOCX(data)
	case strings.HasSuffix(name, ".txt"):
		return extractText(data)
	default:
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, filename)
	}
}
