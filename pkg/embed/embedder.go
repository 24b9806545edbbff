// Package embed provides embedding providers for chunk and query text.
package embed

import (
	"context"
	"errors"
)

// ErrEmptyEmbedding is returned when a provider responds without vectors.
var ErrEmptyEmbedding = errors.New("embed: provider returned no embedding")

// Embedder turns texts into vectors. Implementations batch where the
// underlying API allows it.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
