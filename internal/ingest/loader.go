package ingest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/tarunagarwal/turbott/internal/extract"
	"github.com/tarunagarwal/turbott/internal/models"
)

// Ingestor reads supported file formats or raw text, normalizes them into
// documents, and splits them into chunks. All entry points funnel through the
// same Chunker.
type Ingestor struct {
	extractor  *extract.Extractor
	chunker    *Chunker
	extensions map[string]struct{}
	logger     *zap.Logger
}

// IngestorOption configures an Ingestor.
type IngestorOption func(*Ingestor)

// WithLogger sets a logger for skipped-file warnings during directory scans.
func WithLogger(l *zap.Logger) IngestorOption {
	return func(in *Ingestor) { in.logger = l }
}

// NewIngestor creates an ingestor chunking at chunkSize/chunkOverlap runes and
// accepting the given extensions (nil means every extension with a reader).
// Fails with models.ErrConfiguration on invalid chunk parameters or when an
// extension has no reader.
func NewIngestor(chunkSize, chunkOverlap int, extensions []string, opts ...IngestorOption) (*Ingestor, error) {
	chunker, err := NewChunker(chunkSize, chunkOverlap)
	if err != nil {
		return nil, err
	}
	if extensions == nil {
		extensions = extract.Extensions()
	}
	extSet := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(ext)
		if !extract.Supported(ext) {
			return nil, fmt.Errorf("extension %q has no reader: %w", ext, models.ErrConfiguration)
		}
		extSet[ext] = struct{}{}
	}
	in := &Ingestor{
		extractor:  extract.NewExtractor(),
		chunker:    chunker,
		extensions: extSet,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in, nil
}

// LoadDocument reads a single file and returns its chunks.
// Missing files fail with models.ErrNotFound; extensions outside the configured
// set fail with models.ErrUnsupportedFormat naming the extension.
func (in *Ingestor) LoadDocument(path string) ([]models.Chunk, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file %s: %w", path, models.ErrNotFound)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not a file: %w", path, models.ErrNotFound)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := in.extensions[ext]; !ok {
		return nil, fmt.Errorf("extension %q: %w", ext, models.ErrUnsupportedFormat)
	}
	text, err := in.extractor.Extract(path)
	if err != nil {
		return nil, err
	}
	doc := models.Document{
		Content:  text,
		Metadata: map[string]interface{}{"source": path},
	}
	return in.chunker.Split([]models.Document{doc}), nil
}

// LoadDirectory recursively scans path for files with supported extensions and
// returns the chunks of every readable file. A failure on one file is logged
// and the file skipped; finding no documents at all returns an empty result,
// not an error. A missing directory fails with models.ErrNotFound.
func (in *Ingestor) LoadDirectory(path string) ([]models.Chunk, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("directory %s: %w", path, models.ErrNotFound)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory: %w", path, models.ErrNotFound)
	}

	var chunks []models.Chunk
	walkErr := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			in.logger.Warn("skipping unreadable entry", zap.String("path", p), zap.Error(err))
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(p))
		if _, ok := in.extensions[ext]; !ok {
			return nil
		}
		fileChunks, err := in.LoadDocument(p)
		if err != nil {
			in.logger.Warn("skipping file", zap.String("path", p), zap.Error(err))
			return nil
		}
		chunks = append(chunks, fileChunks...)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("scan %s: %w", path, walkErr)
	}
	return chunks, nil
}

// ProcessText chunks raw text directly, bypassing file readers.
func (in *Ingestor) ProcessText(text string) ([]models.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	doc := models.Document{
		Content:  text,
		Metadata: map[string]interface{}{"source": "raw_text"},
	}
	return in.chunker.Split([]models.Document{doc}), nil
}
