package vector

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/embedding"
)

// EmbeddingService wraps an embedding model for vector generation. The same
// service must be used at index-build time and at query time; the store
// records the model identity so a mismatch is caught when an index is loaded.
type EmbeddingService struct {
	embedder embedding.Embedder
	model    string
}

// NewEmbeddingService creates a new embedding service. model names the
// provider model and becomes part of the persisted index manifest.
func NewEmbeddingService(embedder embedding.Embedder, model string) *EmbeddingService {
	return &EmbeddingService{
		embedder: embedder,
		model:    model,
	}
}

// Embed generates an embedding vector for a single text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	vectors, err := s.embedder.EmbedStrings(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("empty embedding returned")
	}

	result := make([]float32, len(vectors[0]))
	for i, v := range vectors[0] {
		result[i] = float32(v)
	}

	return result, nil
}

// EmbedBatch generates embedding vectors for multiple texts. A provider
// response missing vectors is an error, never a silent drop.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("texts cannot be empty")
	}

	vectors, err := s.embedder.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("provider returned %d embeddings for %d texts", len(vectors), len(texts))
	}

	result := make([][]float32, len(texts))
	for i, vec := range vectors {
		if len(vec) == 0 {
			return nil, fmt.Errorf("empty embedding returned for text %d", i)
		}
		result[i] = make([]float32, len(vec))
		for j, v := range vec {
			result[i][j] = float32(v)
		}
	}

	return result, nil
}

// Model returns the embedding model identity.
func (s *EmbeddingService) Model() string {
	return s.model
}
