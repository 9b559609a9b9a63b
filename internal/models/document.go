// Package models defines core data structures for documents, chunks, and conversation turns.
package models

// Document represents a unit of raw text loaded from a file or passed in directly,
// together with its metadata (source path, page number, etc.). Immutable once created.
type Document struct {
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Chunk is a bounded-length segment of a document, the unit of retrieval.
// Chunks inherit their document's metadata and are never mutated after creation.
type Chunk struct {
	ID         string                 `json:"id"`
	DocumentID string                 `json:"document_id"`
	Content    string                 `json:"content"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	ChunkIndex int                    `json:"chunk_index"`
}
