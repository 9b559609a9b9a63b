// Package provider defines the embedding and generation provider contracts
// and the OpenAI-backed implementation.
package provider

import "context"

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// Message is one prior chat exchange message handed to the generator.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Generator produces an answer for a prompt given prior chat history.
// One request, one response; retries are the caller's concern.
type Generator interface {
	Generate(ctx context.Context, system string, history []Message, prompt string) (string, error)
}
