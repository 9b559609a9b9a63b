// Package vectorstore provides the durable vector index: chunk rows persisted
// in SQLite under a persist directory, searched in memory by cosine similarity.
package vectorstore

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/tarunagarwal/turbott/internal/models"
	"github.com/tarunagarwal/turbott/internal/provider"
)

const dbFileName = "chunks.db"

// Store is the durable vector index. Entries are append-only: reopening an
// existing persist directory loads prior entries and new upserts add to them.
type Store struct {
	mu       sync.RWMutex
	db       *sql.DB
	embedder provider.Embedder
	chunks   []models.Chunk
	vectors  [][]float32
	hashes   map[string]struct{}
	logger   *zap.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets a logger for upsert and load events.
func WithLogger(l *zap.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// Open opens or creates the vector store under persistDir and loads any
// existing entries into memory. Parent directories are created as needed.
func Open(persistDir string, embedder provider.Embedder, opts ...StoreOption) (*Store, error) {
	if err := os.MkdirAll(persistDir, 0755); err != nil {
		return nil, fmt.Errorf("create persist directory: %w", err)
	}
	db, err := sql.Open("sqlite3", filepath.Join(persistDir, dbFileName))
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	s := &Store{
		db:       db,
		embedder: embedder,
		hashes:   make(map[string]struct{}),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.loadAll(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if len(s.chunks) > 0 {
		s.logger.Info("reopened vector store",
			zap.String("persist_dir", persistDir),
			zap.Int("entries", len(s.chunks)),
		)
	}
	return s, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		content_hash TEXT PRIMARY KEY,
		chunk_id TEXT NOT NULL,
		document_id TEXT NOT NULL,
		content TEXT NOT NULL,
		metadata TEXT,
		chunk_index INTEGER NOT NULL,
		embedding BLOB NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_entries_document_id ON entries(document_id);
	`
	_, err := db.Exec(schema)
	return err
}

// loadAll reads every persisted entry into the in-memory index.
func (s *Store) loadAll() error {
	rows, err := s.db.Query(
		`SELECT content_hash, chunk_id, document_id, content, metadata, chunk_index, embedding
		 FROM entries ORDER BY created_at, chunk_id`)
	if err != nil {
		return fmt.Errorf("load entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var hash, metadataJSON string
		var chunk models.Chunk
		var blob []byte
		if err := rows.Scan(&hash, &chunk.ID, &chunk.DocumentID, &chunk.Content,
			&metadataJSON, &chunk.ChunkIndex, &blob); err != nil {
			return fmt.Errorf("scan entry: %w", err)
		}
		if metadataJSON != "" {
			if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
				return fmt.Errorf("unmarshal metadata for %s: %w", chunk.ID, err)
			}
		}
		s.chunks = append(s.chunks, chunk)
		s.vectors = append(s.vectors, bytesToFloat32Slice(blob))
		s.hashes[hash] = struct{}{}
	}
	return rows.Err()
}

// Upsert embeds every chunk whose content is not yet indexed and persists the
// new entries. Calling it again with identical chunks adds nothing, so the
// index only grows. Fails with models.ErrEmptyInput on zero chunks.
func (s *Store) Upsert(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks to index: %w", models.ErrEmptyInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var fresh []models.Chunk
	var freshHashes []string
	seen := make(map[string]struct{})
	for _, ch := range chunks {
		hash := contentHash(ch.Content)
		if _, ok := s.hashes[hash]; ok {
			continue
		}
		if _, ok := seen[hash]; ok {
			continue
		}
		seen[hash] = struct{}{}
		fresh = append(fresh, ch)
		freshHashes = append(freshHashes, hash)
	}
	if len(fresh) == 0 {
		s.logger.Debug("upsert: all chunks already indexed", zap.Int("chunks", len(chunks)))
		return nil
	}

	texts := make([]string, len(fresh))
	for i, ch := range fresh {
		texts[i] = ch.Content
	}
	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	stmt, err := tx.Prepare(
		`INSERT INTO entries (content_hash, chunk_id, document_id, content, metadata, chunk_index, embedding, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for i, ch := range fresh {
		metadataJSON, err := json.Marshal(ch.Metadata)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("marshal metadata for %s: %w", ch.ID, err)
		}
		if _, err := stmt.Exec(freshHashes[i], ch.ID, ch.DocumentID, ch.Content,
			string(metadataJSON), ch.ChunkIndex, float32SliceToBytes(embeddings[i]), now); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert entry %s: %w", ch.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit entries: %w", err)
	}

	for i, ch := range fresh {
		s.chunks = append(s.chunks, ch)
		s.vectors = append(s.vectors, embeddings[i])
		s.hashes[freshHashes[i]] = struct{}{}
	}
	s.logger.Info("indexed chunks", zap.Int("new", len(fresh)), zap.Int("total", len(s.chunks)))
	return nil
}

// Search embeds query and returns the k stored chunks nearest by cosine
// similarity, nearest first. Fails with models.ErrIndexNotInitialized when the
// index holds no entries.
func (s *Store) Search(ctx context.Context, query string, k int) ([]models.Chunk, error) {
	s.mu.RLock()
	empty := len(s.chunks) == 0
	s.mu.RUnlock()
	if empty {
		return nil, fmt.Errorf("no documents have been ingested: %w", models.ErrIndexNotInitialized)
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if k <= 0 {
		k = 3
	}
	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(s.vectors))
	for i, vec := range s.vectors {
		scores[i] = scored{idx: i, score: dot(queryVec, vec)}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if k > len(scores) {
		k = len(scores)
	}
	out := make([]models.Chunk, k)
	for i := 0; i < k; i++ {
		out[i] = s.chunks[scores[i].idx]
	}
	return out, nil
}

// Count returns the number of indexed entries.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// Dimensions returns the embedding dimension of the backing embedder.
func (s *Store) Dimensions() int {
	return s.embedder.Dimensions()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func contentHash(content string) string {
	h := sha256.Sum256([]byte(content))
	return hex.EncodeToString(h[:])
}

// dot assumes L2-normalized vectors, so the inner product is cosine similarity.
func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i] * b[i])
	}
	return sum
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}
