package vectorstore

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/flow-rag/chatbot-backend/pkg/document"
	"github.com/flow-rag/chatbot-backend/pkg/embed"
)

// Manager owns the embed-then-persist flow on top of a Backend and carries
// the index policies: destructive rebuilds, soft-failing appends, empty
// results on query trouble, and the fail-safe staleness check.
type Manager struct {
	backend  Backend
	embedder embed.Embedder
	loaded   bool
}

func NewManager(backend Backend, embedder embed.Embedder) *Manager {
	return &Manager{backend: backend, embedder: embedder}
}

// Create wipes any existing index and rebuilds it from the given chunks.
// Destructive; callers must intend a full rebuild.
func (m *Manager) Create(ctx context.Context, chunks []document.Document) error {
	if len(chunks) == 0 {
		log.Printf("[store] no chunks provided for vector store creation")
		return nil
	}
	records, err := m.embedChunks(ctx, chunks)
	if err != nil {
		return err
	}
	if err := m.backend.Create(ctx, records); err != nil {
		return err
	}
	m.loaded = true
	return nil
}

// Load reports whether an index is available, opening it from disk at most
// once per process. Repeated calls after a successful load are free.
func (m *Manager) Load(ctx context.Context) bool {
	if m.loaded {
		return true
	}
	ok, err := m.backend.Exists(ctx)
	if err != nil || !ok {
		return false
	}
	if err := m.backend.Open(ctx); err != nil {
		log.Printf("[store] error loading vector store: %v", err)
		return false
	}
	m.loaded = true
	return true
}

// Add appends chunks to a loaded index. Returns false rather than an error
// when no index is loaded, the input is empty, or the append fails; callers
// treat false as "fall back to a full rebuild".
func (m *Manager) Add(ctx context.Context, chunks []document.Document) bool {
	if len(chunks) == 0 || !m.Load(ctx) {
		return false
	}
	records, err := m.embedChunks(ctx, chunks)
	if err != nil {
		log.Printf("[store] error embedding new chunks: %v", err)
		return false
	}
	if err := m.backend.Add(ctx, records); err != nil {
		log.Printf("[store] error adding chunks to vector store: %v", err)
		return false
	}
	log.Printf("[store] added %d chunks to existing vector store", len(records))
	return true
}

// Query returns the top-k chunks for the query text. An absent index or a
// failed search yields an empty result, never an error.
func (m *Manager) Query(ctx context.Context, query string, k int) []document.Document {
	if !m.Load(ctx) {
		log.Printf("[store] no vector store available for querying")
		return nil
	}
	vectors, err := m.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		log.Printf("[store] error embedding query: %v", err)
		return nil
	}
	if len(vectors) == 0 {
		return nil
	}
	records, err := m.backend.Search(ctx, vectors[0], k)
	if err != nil {
		log.Printf("[store] error querying vector store: %v", err)
		return nil
	}
	docs := make([]document.Document, len(records))
	for i, rec := range records {
		docs[i] = document.Document{
			Content:  rec.Content,
			Metadata: document.Metadata{Source: rec.Source, Page: rec.Page},
		}
	}
	return docs
}

// IsOutdated reports whether the index should be rebuilt: true when no index
// exists, when any file under the folders is newer than the last build, or
// when the check itself fails (fail-safe toward rebuilding).
func (m *Manager) IsOutdated(ctx context.Context, folders []string) bool {
	ok, err := m.backend.Exists(ctx)
	if err != nil || !ok {
		return true
	}
	builtAt, err := m.backend.BuiltAt(ctx)
	if err != nil {
		return true
	}

	newest, err := newestModTime(folders)
	if err != nil {
		return true
	}
	return newest.After(builtAt)
}

func (m *Manager) embedChunks(ctx context.Context, chunks []document.Document) ([]Record, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := m.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(texts))
	}
	records := make([]Record, len(chunks))
	for i, c := range chunks {
		records[i] = Record{
			ID:        uuid.NewString(),
			Content:   c.Content,
			Source:    c.Metadata.Source,
			Page:      c.Metadata.Page,
			Embedding: vectors[i],
		}
	}
	return records, nil
}

func newestModTime(folders []string) (time.Time, error) {
	var newest time.Time
	for _, folder := range folders {
		err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				// A missing folder is not staleness evidence.
				return nil
			}
			if d.IsDir() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			if info.ModTime().After(newest) {
				newest = info.ModTime()
			}
			return nil
		})
		if err != nil {
			return time.Time{}, err
		}
	}
	return newest, nil
}
