// Package session provides the top-level orchestrator coordinating ingestion,
// question answering, conversation memory, and export.
package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tarunagarwal/turbott/internal/ingest"
	"github.com/tarunagarwal/turbott/internal/memory"
	"github.com/tarunagarwal/turbott/internal/models"
	"github.com/tarunagarwal/turbott/pkg/utils"
)

// sourcePreviewLen is the number of characters of each source chunk written to exports.
const sourcePreviewLen = 200

// exportDelimiter separates turns in exported conversations.
var exportDelimiter = strings.Repeat("=", 80)

// ChunkIndex is the durable vector index the session ingests into.
type ChunkIndex interface {
	Upsert(ctx context.Context, chunks []models.Chunk) error
	Count() int
}

// Synthesizer answers a question given the conversation history.
type Synthesizer interface {
	Answer(ctx context.Context, question string, history []models.ConversationTurn) (string, []models.Chunk, error)
}

// KeywordIndex receives ingested chunks for auxiliary keyword search.
// Indexing failures there must not fail ingestion.
type KeywordIndex interface {
	IndexChunks(chunks []models.Chunk) error
}

// Session owns one user's conversation: it coordinates ingestion and query
// calls, holds the conversation memory, and exposes load/ask/clear/export.
// Knowledge (the chunk index) and conversation have independent lifecycles:
// clearing the conversation never touches ingested documents.
type Session struct {
	ingestor *ingest.Ingestor
	index    ChunkIndex
	engine   Synthesizer
	memory   *memory.Memory
	keyword  KeywordIndex
	logger   *zap.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets a logger for session events.
func WithLogger(l *zap.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// WithKeywordIndex mirrors ingested chunks into an auxiliary keyword index.
func WithKeywordIndex(k KeywordIndex) SessionOption {
	return func(s *Session) { s.keyword = k }
}

// New creates a session over the given ingestor, chunk index, and synthesizer.
func New(ingestor *ingest.Ingestor, index ChunkIndex, engine Synthesizer, opts ...SessionOption) *Session {
	s := &Session{
		ingestor: ingestor,
		index:    index,
		engine:   engine,
		memory:   memory.New(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadDocuments ingests a file or a directory (recursively) into the index.
// Returns the number of chunks indexed.
func (s *Session) LoadDocuments(ctx context.Context, path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("path %s: %w", path, models.ErrNotFound)
		}
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}

	var chunks []models.Chunk
	if info.IsDir() {
		chunks, err = s.ingestor.LoadDirectory(path)
	} else {
		chunks, err = s.ingestor.LoadDocument(path)
	}
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		s.logger.Warn("no documents found", zap.String("path", path))
		return 0, nil
	}
	return len(chunks), s.indexChunks(ctx, chunks)
}

// ProcessText ingests raw text into the index. Returns the number of chunks indexed.
func (s *Session) ProcessText(ctx context.Context, text string) (int, error) {
	chunks, err := s.ingestor.ProcessText(text)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		s.logger.Warn("no content extracted from text")
		return 0, nil
	}
	return len(chunks), s.indexChunks(ctx, chunks)
}

func (s *Session) indexChunks(ctx context.Context, chunks []models.Chunk) error {
	if err := s.index.Upsert(ctx, chunks); err != nil {
		return err
	}
	if s.keyword != nil {
		if err := s.keyword.IndexChunks(chunks); err != nil {
			s.logger.Warn("keyword indexing failed", zap.Error(err))
		}
	}
	return nil
}

// Ask answers question, appends the resulting turn to the conversation memory,
// and returns it.
func (s *Session) Ask(ctx context.Context, question string) (models.ConversationTurn, error) {
	answer, sources, err := s.engine.Answer(ctx, question, s.memory.History())
	if err != nil {
		return models.ConversationTurn{}, err
	}
	turn := models.ConversationTurn{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		Question:  question,
		Answer:    answer,
		Sources:   sources,
	}
	s.memory.Append(turn)
	s.logger.Info("answered question",
		zap.String("question", question),
		zap.Int("sources", len(sources)),
	)
	return turn, nil
}

// History returns the conversation turns in chronological order.
func (s *Session) History() []models.ConversationTurn {
	return s.memory.History()
}

// ClearConversation empties the conversation memory. The chunk index is
// untouched: ingested knowledge survives conversation resets.
func (s *Session) ClearConversation() {
	s.memory.Clear()
	s.logger.Info("cleared conversation history")
}

// IndexedChunks returns the number of chunks in the index.
func (s *Session) IndexedChunks() int {
	return s.index.Count()
}

// ExportConversation writes the full conversation to a UTF-8 text file, one
// block per turn with a truncated preview of each source. Parent directories
// are created as needed.
func (s *Session) ExportConversation(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create export directory: %w", err)
		}
	}

	var b strings.Builder
	for _, turn := range s.memory.History() {
		fmt.Fprintf(&b, "Timestamp: %s\n", turn.Timestamp.Format(time.RFC3339))
		fmt.Fprintf(&b, "Question: %s\n", turn.Question)
		fmt.Fprintf(&b, "Answer: %s\n", turn.Answer)
		b.WriteString("Sources:\n")
		for _, src := range turn.Sources {
			fmt.Fprintf(&b, "- %s\n", utils.Truncate(src.Content, sourcePreviewLen))
		}
		b.WriteString("\n" + exportDelimiter + "\n\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	s.logger.Info("exported conversation", zap.String("path", path), zap.Int("turns", s.memory.Len()))
	return nil
}
