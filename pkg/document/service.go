package document

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/flow-rag/chatbot-backend/pkg/status"
)

// Index is the slice of the vector store the document service needs. It is
// satisfied by *vectorstore.Manager.
type Index interface {
	Create(ctx context.Context, chunks []Document) error
	Add(ctx context.Context, chunks []Document) bool
	Query(ctx context.Context, query string, k int) []Document
	IsOutdated(ctx context.Context, folders []string) bool
}

// Service orchestrates the loader, splitter, upload handler, and vector
// index. It owns the "is the index stale" decision and the
// incremental-append-or-full-rebuild policy for uploads.
type Service struct {
	DocumentsFolder string
	UploadsFolder   string

	splitter Splitter
	uploads  *UploadHandler
	index    Index
}

func NewService(documentsFolder, uploadsFolder string, index Index) (*Service, error) {
	if err := os.MkdirAll(documentsFolder, 0o755); err != nil {
		return nil, fmt.Errorf("create documents folder: %w", err)
	}
	splitter := DefaultSplitter()
	uploads, err := NewUploadHandler(uploadsFolder, splitter)
	if err != nil {
		return nil, err
	}
	return &Service{
		DocumentsFolder: documentsFolder,
		UploadsFolder:   uploadsFolder,
		splitter:        splitter,
		uploads:         uploads,
		index:           index,
	}, nil
}

func (s *Service) folders() []string {
	return []string{s.DocumentsFolder, s.UploadsFolder}
}

// SetupRAGSystem ensures the index reflects the document folders. A fresh
// index short-circuits; an empty corpus is a warning, not an error.
func (s *Service) SetupRAGSystem(ctx context.Context) status.Result {
	if !s.index.IsOutdated(ctx, s.folders()) {
		return status.OK("Vector store is up-to-date, skipping document processing")
	}

	log.Printf("[docs] building/rebuilding vector store")
	docs, err := LoadFolders(s.folders())
	if err != nil {
		return status.Err("Error setting up RAG system: %v", err)
	}
	if len(docs) == 0 {
		return status.Warn("No documents found to process")
	}

	chunks := Sanitize(s.splitter.Split(docs))
	if err := s.index.Create(ctx, chunks); err != nil {
		return status.Err("Error setting up RAG system: %v", err)
	}
	return status.OK("Successfully processed %d documents into %d chunks", len(docs), len(chunks))
}

// UploadResult extends the common result with the stored document identity.
type UploadResult struct {
	status.Result
	DocumentID   string `json:"document_id,omitempty"`
	DocumentName string `json:"document_name,omitempty"`
}

// SaveUploadedDocument persists an upload and prefers appending just its
// chunks to the existing index; any failure on that path falls back to a
// full rebuild.
func (s *Service) SaveUploadedDocument(ctx context.Context, content []byte, filename string) UploadResult {
	saved, err := s.uploads.Save(content, filename)
	if err != nil {
		return UploadResult{Result: status.Err("%v", err)}
	}

	chunks, err := s.uploads.LoadAndProcess(saved.FilePath)
	if err == nil && s.index.Add(ctx, chunks) {
		return UploadResult{
			Result:       status.OK("Document uploaded and added to existing vector store successfully"),
			DocumentID:   saved.DocumentID,
			DocumentName: saved.DocumentName,
		}
	}
	if err != nil {
		log.Printf("[docs] error adding upload to existing store: %v, rebuilding", err)
	} else {
		log.Printf("[docs] could not add to existing store, rebuilding")
	}

	rebuild := s.SetupRAGSystem(ctx)
	if rebuild.IsError() {
		return UploadResult{Result: status.Err("Document saved but error rebuilding vector store: %s", rebuild.Message)}
	}
	return UploadResult{
		Result:       status.OK("Document uploaded and processed successfully (vector store rebuilt)"),
		DocumentID:   saved.DocumentID,
		DocumentName: saved.DocumentName,
	}
}

// Query retrieves the top-k chunks relevant to the query text.
func (s *Service) Query(ctx context.Context, query string, k int) []Document {
	return s.index.Query(ctx, query, k)
}

// UploadStats reports counts of stored uploads per extension.
func (s *Service) UploadStats() UploadStats {
	return s.uploads.Stats()
}
