package embed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/flow-rag/chatbot-backend/pkg/auth"
)

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint (the Flow
// gateway), resolving a bearer token through the token manager on every call.
type OpenAIEmbedder struct {
	BaseURL string
	Model   string
	Tokens  auth.TokenProvider
}

func NewOpenAIEmbedder(baseURL, model string, tokens auth.TokenProvider) *OpenAIEmbedder {
	if model == "" {
		model = "text-embedding-3-small"
	}
	return &OpenAIEmbedder{BaseURL: baseURL, Model: model, Tokens: tokens}
}

func (e *OpenAIEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	token, err := e.Tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve token: %w", err)
	}

	cfg := openai.DefaultConfig(token)
	if e.BaseURL != "" {
		cfg.BaseURL = e.BaseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	client := openai.NewClientWithConfig(cfg)

	resp, err := client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.Model),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, ErrEmptyEmbedding
	}

	vectors := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		if len(d.Embedding) == 0 {
			return nil, ErrEmptyEmbedding
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}
