package main

import (
	"context"
	"fmt"
	"log"

	"github.com/flow-rag/chatbot-backend/pkg/api"
	"github.com/flow-rag/chatbot-backend/pkg/auth"
	"github.com/flow-rag/chatbot-backend/pkg/chatbot"
	"github.com/flow-rag/chatbot-backend/pkg/config"
	"github.com/flow-rag/chatbot-backend/pkg/document"
	"github.com/flow-rag/chatbot-backend/pkg/embed"
	"github.com/flow-rag/chatbot-backend/pkg/flowapi"
	"github.com/flow-rag/chatbot-backend/pkg/vectorstore"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	tokens := auth.NewTokenManager(
		cfg.TokenCachePath,
		cfg.FlowTokenURL,
		cfg.FlowClientID,
		cfg.FlowClientSecret,
		cfg.FlowTenant,
	)

	embedder, err := newEmbedder(cfg, tokens)
	if err != nil {
		log.Fatalf("embedder: %v", err)
	}

	backend, err := newBackend(ctx, cfg)
	if err != nil {
		log.Fatalf("vector store backend: %v", err)
	}

	manager := vectorstore.NewManager(backend, embedder)

	docs, err := document.NewService(cfg.DocumentsFolder, cfg.UploadsFolder, manager)
	if err != nil {
		log.Fatalf("document service: %v", err)
	}

	flow := flowapi.NewClient(cfg.FlowAPIBaseURL, cfg.FlowModel, cfg.FlowTenant, cfg.FlowAgent, tokens)
	bot := chatbot.NewService(docs, flow, cfg.RetrievalK)

	// Build or refresh the index before serving traffic.
	setup := docs.SetupRAGSystem(ctx)
	log.Printf("[init] RAG system: %s (%s)", setup.Status, setup.Message)

	handler := api.NewHandler(bot, docs, cfg.MaxUploadBytes)
	e := api.NewRouter(handler)

	log.Printf("[init] listening on :%s", cfg.Port)
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func newEmbedder(cfg config.Config, tokens auth.TokenProvider) (embed.Embedder, error) {
	switch cfg.EmbeddingProvider {
	case "ollama":
		return embed.NewOllamaEmbedder(cfg.OllamaHost, cfg.EmbeddingModel)
	case "openai", "":
		return embed.NewOpenAIEmbedder(cfg.FlowAPIBaseURL, cfg.EmbeddingModel, tokens), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
}

func newBackend(ctx context.Context, cfg config.Config) (vectorstore.Backend, error) {
	switch cfg.VectorStoreBackend {
	case "postgres":
		return vectorstore.NewPostgresStore(ctx, cfg.PostgresURL, embeddingDims(cfg.EmbeddingModel))
	case "local", "":
		return vectorstore.NewLocalStore(cfg.VectorStorePath), nil
	default:
		return nil, fmt.Errorf("unknown vector store backend %q", cfg.VectorStoreBackend)
	}
}

// embeddingDims maps known embedding models to their vector width; the
// pgvector column is typed on it.
func embeddingDims(model string) int {
	switch model {
	case "text-embedding-3-large":
		return 3072
	case "nomic-embed-text":
		return 768
	default:
		return 1536
	}
}
