package provider

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/tarunagarwal/turbott/pkg/utils"
)

// MockEmbedder is a deterministic embedder for tests. The same text always
// yields the same unit-length vector, and different texts diverge, so cosine
// ranking is stable across runs.
type MockEmbedder struct {
	dimensions int
}

// NewMockEmbedder returns an embedder producing vectors of the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 64
	}
	return &MockEmbedder{dimensions: dimensions}
}

// Embed returns a deterministic embedding derived from the text hash.
func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()
	emb := make([]float32, e.dimensions)
	for i := range emb {
		emb[i] = float32(math.Sin(float64(seed%10007)*float64(i+1)) * 0.1)
	}
	// Mix in token presence so related texts land closer than unrelated ones.
	for _, tok := range tokenize(text) {
		th := fnv.New32a()
		_, _ = th.Write([]byte(tok))
		emb[int(th.Sum32())%e.dimensions] += 1.0
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int { return e.dimensions }

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// MockGenerator is a scripted generator for tests. It returns Response and
// records every prompt it was asked to complete.
type MockGenerator struct {
	Response string
	Err      error
	Calls    []string
	History  [][]Message
}

// Generate returns the scripted response and records the call.
func (g *MockGenerator) Generate(ctx context.Context, system string, history []Message, prompt string) (string, error) {
	g.Calls = append(g.Calls, prompt)
	g.History = append(g.History, history)
	if g.Err != nil {
		return "", g.Err
	}
	if g.Response == "" {
		return "mock answer", nil
	}
	return g.Response, nil
}
