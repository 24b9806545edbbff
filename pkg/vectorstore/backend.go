// Package vectorstore persists embedded chunks and serves nearest-neighbor
// queries over them.
package vectorstore

import (
	"context"
	"math"
	"time"
)

// Record is one embedded chunk in the store.
type Record struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Source    string    `json:"source"`
	Page      int       `json:"page,omitempty"`
	Embedding []float32 `json:"embedding"`
}

// Backend is a persistent vector index. Implementations: local disk, pgvector.
type Backend interface {
	// Create wipes any existing index and persists the given records.
	Create(ctx context.Context, records []Record) error
	// Open prepares the backend for queries. Fails if no index exists.
	Open(ctx context.Context) error
	// Add appends records to an opened index.
	Add(ctx context.Context, records []Record) error
	// Search returns the top-k records by similarity to the query vector.
	Search(ctx context.Context, query []float32, k int) ([]Record, error)
	// Exists reports whether a persisted index is present.
	Exists(ctx context.Context) (bool, error)
	// BuiltAt returns the time the index was last written.
	BuiltAt(ctx context.Context) (time.Time, error)
	// Drop removes the persisted index.
	Drop(ctx context.Context) error
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
