// Package ingest provides document loading and chunking for the retrieval pipeline.
package ingest

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/tarunagarwal/turbott/internal/models"
)

// separators are tried in order: paragraph, line, sentence, word. The empty
// separator is the hard rune cut used when nothing larger fits in a chunk.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// Chunker splits documents into overlapping chunks of at most chunkSize runes,
// preferring paragraph, line, sentence, and word boundaries over hard cuts.
// Splitting is deterministic: the same document and parameters always produce
// the same chunk sequence.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a chunker with the given size and overlap (in runes).
// Fails with models.ErrConfiguration when overlap >= size or size is not positive.
func NewChunker(chunkSize, chunkOverlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size %d must be positive: %w", chunkSize, models.ErrConfiguration)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap %d must be smaller than chunk size %d: %w",
			chunkOverlap, chunkSize, models.ErrConfiguration)
	}
	return &Chunker{chunkSize: chunkSize, chunkOverlap: chunkOverlap}, nil
}

// Split chunks each document in order. Every chunk inherits its document's
// metadata; a document shorter than the chunk size yields exactly one chunk.
func (c *Chunker) Split(docs []models.Document) []models.Chunk {
	var chunks []models.Chunk
	for _, doc := range docs {
		docID := uuid.New().String()
		for i, text := range c.splitText(doc.Content, separators) {
			chunks = append(chunks, models.Chunk{
				ID:         fmt.Sprintf("%s_%d", docID, i),
				DocumentID: docID,
				Content:    text,
				Metadata:   doc.Metadata,
				ChunkIndex: i,
			})
		}
	}
	return chunks
}

// splitText splits text on the first separator it contains, recursing with the
// remaining separators for pieces that are still too long, then merges adjacent
// pieces into chunks of at most chunkSize runes keeping chunkOverlap runes of
// trailing context between consecutive chunks.
func (c *Chunker) splitText(text string, seps []string) []string {
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= c.chunkSize {
		return []string{text}
	}

	sep := ""
	var rest []string
	for i, s := range seps {
		if s == "" {
			break
		}
		if strings.Contains(text, s) {
			sep = s
			rest = seps[i+1:]
			break
		}
	}
	if sep == "" {
		return c.hardSplit(text)
	}

	// SplitAfter keeps separators attached so merged chunks are exact
	// substrings of the source and coverage has no gaps.
	pieces := strings.SplitAfter(text, sep)

	var out []string
	var window []string
	windowLen := 0

	flush := func() {
		if len(window) > 0 {
			out = append(out, strings.Join(window, ""))
		}
	}

	for _, piece := range pieces {
		pieceLen := utf8.RuneCountInString(piece)
		if pieceLen > c.chunkSize {
			flush()
			window, windowLen = nil, 0
			out = append(out, c.splitText(piece, rest)...)
			continue
		}
		if windowLen+pieceLen > c.chunkSize && len(window) > 0 {
			flush()
			// Retain trailing pieces up to the overlap budget.
			for windowLen > c.chunkOverlap || (windowLen+pieceLen > c.chunkSize && windowLen > 0) {
				windowLen -= utf8.RuneCountInString(window[0])
				window = window[1:]
			}
		}
		window = append(window, piece)
		windowLen += pieceLen
	}
	flush()
	return out
}

// hardSplit cuts text into windows of chunkSize runes stepping by
// chunkSize-chunkOverlap, used when no separator exists within a chunk.
func (c *Chunker) hardSplit(text string) []string {
	runes := []rune(text)
	step := c.chunkSize - c.chunkOverlap
	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}
