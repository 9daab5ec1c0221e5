package providers

import (
	"context"
	"fmt"
	"os"

	openaiEmbed "github.com/cloudwego/eino-ext/components/embedding/openai"
	geminiModel "github.com/cloudwego/eino-ext/components/model/gemini"
	openaiModel "github.com/cloudwego/eino-ext/components/model/openai"
	einoEmbedding "github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	"districtguide/rag"
)

const (
	defaultChatModel      = "gpt-4o"
	defaultEmbeddingModel = "text-embedding-3-small"
	defaultGeminiModel    = "gemini-1.5-pro"
)

// ChatModelConfig defines the configuration for creating a chat model.
type ChatModelConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// NewChatModel creates an OpenAI-compatible chat model from specific configuration.
func NewChatModel(ctx context.Context, config *ChatModelConfig) (model.BaseChatModel, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("API key is required in config")
	}

	modelName := config.Model
	if modelName == "" {
		modelName = defaultChatModel
	}

	return openaiModel.NewChatModel(ctx, &openaiModel.ChatModelConfig{
		APIKey:  config.APIKey,
		BaseURL: config.BaseURL,
		Model:   modelName,
	})
}

// CreateChatModel creates the chat model selected by the environment.
//
// Required environment variables:
//   - OPENAI_API_KEY (or GEMINI_API_KEY when LLM_PROVIDER=gemini)
//
// Optional environment variables:
//   - LLM_PROVIDER: "openai" (default) or "gemini"
//   - OPENAI_BASE_URL: base URL for an OpenAI-compatible API
//   - CHAT_MODEL: model name (default: gpt-4o)
func CreateChatModel(ctx context.Context) (model.BaseChatModel, error) {
	if os.Getenv("LLM_PROVIDER") == "gemini" {
		return createGeminiModel(ctx)
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, &rag.ConfigurationError{Var: "OPENAI_API_KEY"}
	}

	return NewChatModel(ctx, &ChatModelConfig{
		APIKey:  apiKey,
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
		Model:   os.Getenv("CHAT_MODEL"),
	})
}

// createGeminiModel creates a Google Gemini chat model from environment variables.
func createGeminiModel(ctx context.Context) (model.BaseChatModel, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, &rag.ConfigurationError{Var: "GEMINI_API_KEY"}
	}

	modelName := os.Getenv("GEMINI_MODEL")
	if modelName == "" {
		modelName = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return geminiModel.NewChatModel(ctx, &geminiModel.Config{
		Client: client,
		Model:  modelName,
	})
}

// EmbeddingConfig defines the configuration for creating an embedding model.
type EmbeddingConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// NewEmbeddingModel creates an OpenAI-compatible embedding model from specific
// configuration.
func NewEmbeddingModel(ctx context.Context, config *EmbeddingConfig) (einoEmbedding.Embedder, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("API key is required in config")
	}

	modelName := config.Model
	if modelName == "" {
		modelName = defaultEmbeddingModel
	}

	return openaiEmbed.NewEmbedder(ctx, &openaiEmbed.EmbeddingConfig{
		APIKey:  config.APIKey,
		BaseURL: config.BaseURL,
		Model:   modelName,
	})
}

// CreateEmbeddingModel creates the embedding model from environment variables
// and returns its identity alongside, for the index manifest.
func CreateEmbeddingModel(ctx context.Context) (einoEmbedding.Embedder, string, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, "", &rag.ConfigurationError{Var: "OPENAI_API_KEY"}
	}

	modelName := os.Getenv("EMBEDDING_MODEL")
	if modelName == "" {
		modelName = defaultEmbeddingModel
	}

	emb, err := NewEmbeddingModel(ctx, &EmbeddingConfig{
		APIKey:  apiKey,
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
		Model:   modelName,
	})
	if err != nil {
		return nil, "", err
	}
	return emb, modelName, nil
}
