// Package extract provides text extraction from various document formats.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tarunagarwal/turbott/internal/models"
)

// reader extracts text from raw file bytes.
type reader func(content []byte) (string, error)

// readers maps each supported extension to its format reader. The mapping is
// closed: extensions not listed here fail with models.ErrUnsupportedFormat.
var readers = map[string]reader{
	".txt":  extractPlain,
	".md":   extractPlain,
	".pdf":  extractPDF,
	".docx": extractDOCX,
	".odt":  extractODF,
	".rtf":  extractODF,
	".xlsx": extractExcel,
}

// Extractor extracts plain text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Supported reports whether ext (including the leading dot, any case) has a reader.
func Supported(ext string) bool {
	_, ok := readers[strings.ToLower(ext)]
	return ok
}

// Extensions returns the supported extensions.
func Extensions() []string {
	exts := make([]string, 0, len(readers))
	for ext := range readers {
		exts = append(exts, ext)
	}
	return exts
}

// Extract reads the file at path and returns its text content.
// A missing file fails with models.ErrNotFound; an extension without a reader
// fails with models.ErrUnsupportedFormat naming the extension.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file %s: %w", path, models.ErrNotFound)
		}
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, filepath.Ext(path))
}

// ExtractBytes extracts text from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf").
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	rd, ok := readers[strings.ToLower(ext)]
	if !ok {
		return "", fmt.Errorf("extension %q: %w", ext, models.ErrUnsupportedFormat)
	}
	return rd(content)
}
