// Package keyword provides an auxiliary Bleve keyword index over ingested
// chunks, for exact-term lookup alongside the semantic index.
package keyword

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"

	"github.com/tarunagarwal/turbott/internal/models"
)

// Result is one keyword search hit.
type Result struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
}

// chunkDoc is the indexed representation of a chunk.
type chunkDoc struct {
	DocumentID string `json:"document_id"`
	Content    string `json:"content"`
}

// Index is a Bleve-backed keyword index over chunk content.
type Index struct {
	index bleve.Index
}

// Open creates or reopens a Bleve index at path. An existing index is reused
// so chunks indexed in prior runs stay searchable.
func Open(path string) (*Index, error) {
	if _, err := os.Stat(path); err == nil {
		idx, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("open keyword index: %w", openErr)
		}
		return &Index{index: idx}, nil
	}

	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	contentMapping := bleve.NewTextFieldMapping()
	// Standard analyzer: lowercase + tokenize without stemming, so query terms
	// match the exact words that appear in documents.
	contentMapping.Analyzer = standard.Name
	contentMapping.Store = true
	docMapping.AddFieldMappingsAt("content", contentMapping)
	idMapping := bleve.NewKeywordFieldMapping()
	idMapping.Store = true
	docMapping.AddFieldMappingsAt("document_id", idMapping)
	im.DefaultMapping = docMapping

	idx, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("create keyword index: %w", err)
	}
	return &Index{index: idx}, nil
}

// IndexChunks indexes the chunks in one batch, keyed by chunk ID.
func (i *Index) IndexChunks(chunks []models.Chunk) error {
	batch := i.index.NewBatch()
	for _, ch := range chunks {
		if err := batch.Index(ch.ID, chunkDoc{DocumentID: ch.DocumentID, Content: ch.Content}); err != nil {
			return fmt.Errorf("batch chunk %s: %w", ch.ID, err)
		}
	}
	if err := i.index.Batch(batch); err != nil {
		return fmt.Errorf("index chunks: %w", err)
	}
	return nil
}

// Search runs a match query over chunk content and returns up to limit hits,
// best first.
func (i *Index) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 10
	}
	q := bleve.NewMatchQuery(query)
	q.SetField("content")
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.Fields = []string{"content", "document_id"}

	res, err := i.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	out := make([]Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		r := Result{ChunkID: hit.ID, Score: hit.Score}
		if v, ok := hit.Fields["content"].(string); ok {
			r.Content = v
		}
		if v, ok := hit.Fields["document_id"].(string); ok {
			r.DocumentID = v
		}
		out = append(out, r)
	}
	return out, nil
}

// Count returns the number of indexed chunks.
func (i *Index) Count() (uint64, error) {
	return i.index.DocCount()
}

// Close closes the index.
func (i *Index) Close() error {
	return i.index.Close()
}
