// Package extract converts uploaded file bytes into a single normalized text
// string. PDF pages are read in order, text payloads go through a prioritized
// encoding chain, and markdown is reduced to its plain text content.
package extract

import (
	"log/slog"
	"path/filepath"
	"strings"
)

// Extractor turns raw uploaded bytes into normalized text. It performs no
// network calls and keeps no state between calls.
type Extractor struct {
	logger *slog.Logger
}

// New creates an Extractor. A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract dispatches on the declared filename's extension. PDFs are read page
// by page; markdown is stripped to plain text; everything else is treated as
// a text payload.
func (e *Extractor) Extract(data []byte, filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return e.extractPDF(data, filename)
	case ".md", ".markdown":
		text, err := decodeText(data)
		if err != nil {
			return "", err
		}
		return markdownToText([]byte(text)), nil
	default:
		return decodeText(data)
	}
}
