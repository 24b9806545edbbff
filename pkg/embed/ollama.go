package embed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	ollama "github.com/ollama/ollama/api"
)

// OllamaEmbedder computes embeddings with a local Ollama model, the local
// alternative to going through the gateway.
type OllamaEmbedder struct {
	client *ollama.Client
	model  string
}

func NewOllamaEmbedder(host, model string) (*OllamaEmbedder, error) {
	if host == "" {
		host = "http://localhost:11434"
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("parse ollama host: %w", err)
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	httpClient := &http.Client{Timeout: 60 * time.Second}
	return &OllamaEmbedder{client: ollama.NewClient(u, httpClient), model: model}, nil
}

func (e *OllamaEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	res, err := e.client.Embed(ctx, &ollama.EmbedRequest{
		Model: e.model,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	if res == nil || len(res.Embeddings) != len(texts) {
		return nil, ErrEmptyEmbedding
	}
	return res.Embeddings, nil
}
