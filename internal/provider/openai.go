package provider

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/tarunagarwal/turbott/internal/models"
	"github.com/tarunagarwal/turbott/pkg/utils"
)

// OpenAIConfig configures the OpenAI client.
type OpenAIConfig struct {
	Model          string
	EmbeddingModel string
	Temperature    float32
}

// OpenAIClient implements Embedder and Generator against the OpenAI API.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	embedModel  string
	temperature float32
	dimensions  int
}

// NewOpenAIClient creates a client using the OPENAI_API_KEY environment variable.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set: %w", models.ErrConfiguration)
	}
	dim := 1536 // text-embedding-3-small
	if cfg.EmbeddingModel == string(openai.LargeEmbedding3) {
		dim = 3072
	}
	return &OpenAIClient{
		client:      openai.NewClient(key),
		model:       cfg.Model,
		embedModel:  cfg.EmbeddingModel,
		temperature: cfg.Temperature,
		dimensions:  dim,
	}, nil
}

// Embed returns an L2-normalized embedding for text.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("cannot embed empty text: %w", models.ErrEmptyInput)
	}
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.embedModel),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %v: %w", err, models.ErrProvider)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding data returned: %w", models.ErrProvider)
	}
	v := make([]float32, len(resp.Data[0].Embedding))
	copy(v, resp.Data[0].Embedding)
	utils.NormalizeL2(v)
	return v, nil
}

// EmbedBatch embeds texts one request per text, preserving order.
func (c *OpenAIClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := c.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// Dimensions returns the embedding dimension of the configured model.
func (c *OpenAIClient) Dimensions() int {
	return c.dimensions
}

// Generate runs one chat completion with the system instruction, prior history,
// and the new prompt as the final user message.
func (c *OpenAIClient) Generate(ctx context.Context, system string, history []Message, prompt string) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: system,
	})
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages:    msgs,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %v: %w", err, models.ErrProvider)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned: %w", models.ErrProvider)
	}
	return resp.Choices[0].Message.Content, nil
}
