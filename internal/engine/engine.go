// Package engine implements the answer synthesizer: retrieval of relevant
// chunks, prompt assembly, and a single generation call.
package engine

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tarunagarwal/turbott/internal/models"
	"github.com/tarunagarwal/turbott/internal/provider"
)

// systemPrompt is the fixed instruction for every generation call.
const systemPrompt = "You are an AI assistant that helps answer questions based on the provided context. " +
	"Use the following pieces of context to answer the question at the end. " +
	"If you don't know the answer, just say that you don't know, don't try to make up an answer. " +
	"Use three sentences maximum and keep the answer concise."

// creatorAnswer is returned verbatim for creator questions, with no retrieval.
const creatorAnswer = "I was created by Tarun Agarwal."

// creatorPatterns is the fixed rule table for the creator short-circuit.
// Matching is case-insensitive substring; checked before any retrieval.
var creatorPatterns = []string{
	"who created you",
	"who is your creator",
	"your creator",
	"who made you",
}

// Retriever returns the k chunks most similar to query, nearest first.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]models.Chunk, error)
}

// Engine synthesizes answers from retrieved context and conversation history.
// It holds no conversation state of its own; history is passed per call.
type Engine struct {
	retriever Retriever
	generator provider.Generator
	topK      int
	logger    *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a logger for retrieval and generation events.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// New creates an engine retrieving topK chunks per question.
func New(retriever Retriever, generator provider.Generator, topK int, opts ...EngineOption) *Engine {
	if topK <= 0 {
		topK = 3
	}
	e := &Engine{
		retriever: retriever,
		generator: generator,
		topK:      topK,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Answer answers question using retrieved chunks and the given conversation
// history. The returned sources are exactly the chunks used as context.
// Creator questions short-circuit to a canned answer with no sources.
func (e *Engine) Answer(ctx context.Context, question string, history []models.ConversationTurn) (string, []models.Chunk, error) {
	if isCreatorQuestion(question) {
		e.logger.Debug("creator question short-circuit", zap.String("question", question))
		return creatorAnswer, nil, nil
	}

	chunks, err := e.retriever.Search(ctx, question, e.topK)
	if err != nil {
		return "", nil, err
	}
	e.logger.Debug("retrieved context", zap.Int("chunks", len(chunks)))

	answer, err := e.generator.Generate(ctx, systemPrompt, historyMessages(history), buildPrompt(question, chunks))
	if err != nil {
		return "", nil, err
	}
	return answer, chunks, nil
}

func isCreatorQuestion(question string) bool {
	q := strings.ToLower(question)
	for _, pattern := range creatorPatterns {
		if strings.Contains(q, pattern) {
			return true
		}
	}
	return false
}

// buildPrompt combines the retrieved chunk texts and the question.
func buildPrompt(question string, chunks []models.Chunk) string {
	var b strings.Builder
	b.WriteString("Context:\n")
	for i, ch := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(ch.Content)
	}
	fmt.Fprintf(&b, "\n\nQuestion: %s", question)
	return b.String()
}

// historyMessages converts prior turns to alternating user/assistant messages,
// oldest first.
func historyMessages(history []models.ConversationTurn) []provider.Message {
	msgs := make([]provider.Message, 0, len(history)*2)
	for _, turn := range history {
		msgs = append(msgs,
			provider.Message{Role: "user", Content: turn.Question},
			provider.Message{Role: "assistant", Content: turn.Answer},
		)
	}
	return msgs
}
