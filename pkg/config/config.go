package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the process reads from the environment.
type Config struct {
	Port string

	// Flow LLM gateway
	FlowAPIBaseURL   string
	FlowTokenURL     string
	FlowModel        string
	FlowClientID     string
	FlowClientSecret string
	FlowTenant       string
	FlowAgent        string
	TokenCachePath   string

	// Document / index layout
	DocumentsFolder string
	UploadsFolder   string
	VectorStorePath string

	// Vector store backend: "local" or "postgres"
	VectorStoreBackend string
	PostgresURL        string

	// Embeddings: "openai" (via the gateway) or "ollama" (local)
	EmbeddingProvider string
	EmbeddingModel    string
	OllamaHost        string

	MaxUploadBytes int64
	RetrievalK     int
}

// Load reads configuration from the environment, loading .env first if present.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("[cfg] no .env file loaded: %v", err)
	}

	get := func(k, def string) string {
		if v := os.Getenv(k); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		Port:             get("PORT", "8000"),
		FlowAPIBaseURL:   get("FLOW_API_BASE_URL", "https://flow.ciandt.com/ai-orchestration-api/v1/openai"),
		FlowTokenURL:     get("FLOW_TOKEN_URL", "https://flow.ciandt.com/auth-engine-api/v1/api-key/token"),
		FlowModel:        get("FLOW_MODEL", "gpt-4o-mini"),
		FlowClientID:     get("FLOW_CLIENT_ID", ""),
		FlowClientSecret: get("FLOW_CLIENT_SECRET", ""),
		FlowTenant:       get("FLOW_TENANT", ""),
		FlowAgent:        get("FLOW_AGENT", "chat-with-docs"),
		TokenCachePath:   get("TOKEN_CACHE_PATH", ".flow_token.json"),

		DocumentsFolder: get("RAG_DOCUMENTS_FOLDER", "docs"),
		UploadsFolder:   get("UPLOADS_FOLDER", "uploads"),
		VectorStorePath: get("VECTOR_STORE_PATH", "vector_store"),

		VectorStoreBackend: get("VECTOR_STORE_BACKEND", "local"),
		PostgresURL:        get("POSTGRES_URL", ""),

		EmbeddingProvider: get("EMBEDDING_PROVIDER", "openai"),
		EmbeddingModel:    get("EMBEDDING_MODEL", "text-embedding-3-small"),
		OllamaHost:        get("OLLAMA_HOST", "http://localhost:11434"),

		MaxUploadBytes: getInt64("MAX_UPLOAD_BYTES", 10<<20),
		RetrievalK:     getInt("RETRIEVAL_K", 5),
	}
	return cfg
}

func getInt64(k string, def int64) int64 {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
		log.Printf("[cfg] invalid %s=%q, using default %d", k, v, def)
	}
	return def
}

func getInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
		log.Printf("[cfg] invalid %s=%q, using default %d", k, v, def)
	}
	return def
}
