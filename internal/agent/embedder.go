package agent

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Embedder converts text into a vector for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string, task EmbeddingTask) ([]float32, error)
}

// EmbeddingTask selects the retrieval role of the text being embedded.
type EmbeddingTask string

const (
	TaskDocument EmbeddingTask = "RETRIEVAL_DOCUMENT"
	TaskQuery    EmbeddingTask = "RETRIEVAL_QUERY"
)

// GenAIEmbedder produces embeddings through the Gemini embedding API.
type GenAIEmbedder struct {
	client *genai.Client
	model  string
}

// NewGenAIEmbedder creates an embedder backed by the given model.
func NewGenAIEmbedder(ctx context.Context, apiKey, model string) (*GenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("embedder: API key is empty")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("embedder: failed to create genai client: %w", err)
	}
	return &GenAIEmbedder{client: client, model: model}, nil
}

func (e *GenAIEmbedder) Embed(ctx context.Context, text string, task EmbeddingTask) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("embedder: text is empty")
	}

	taskType := string(TaskDocument)
	if task == TaskQuery {
		taskType = string(TaskQuery)
	}

	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		TaskType: taskType,
	})
	if err != nil {
		return nil, fmt.Errorf("embedder: embed request failed: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("embedder: empty embedding in response")
	}
	return resp.Embeddings[0].Values, nil
}
