package document

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// AllowedExtension reports whether the upload extension is supported.
func AllowedExtension(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".pdf":
		return true
	}
	return false
}

// UploadHandler validates and persists user-uploaded files. The storage key
// is `{uuid}{ext}` so two uploads with the same original filename never
// collide; the original name survives only as metadata.
type UploadHandler struct {
	UploadsFolder string
	Splitter      Splitter
}

func NewUploadHandler(uploadsFolder string, splitter Splitter) (*UploadHandler, error) {
	if err := os.MkdirAll(uploadsFolder, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads folder: %w", err)
	}
	return &UploadHandler{UploadsFolder: uploadsFolder, Splitter: splitter}, nil
}

// SavedUpload describes a persisted upload.
type SavedUpload struct {
	DocumentID   string
	DocumentName string
	FilePath     string
}

// Save validates the extension and writes the content under a generated
// UUID-based name. Rejected files leave no side effects.
func (h *UploadHandler) Save(content []byte, filename string) (SavedUpload, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !AllowedExtension(filename) {
		return SavedUpload{}, fmt.Errorf("unsupported file type: %s, only .txt and .pdf are supported", ext)
	}

	docID := uuid.NewString()
	path := filepath.Join(h.UploadsFolder, docID+ext)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return SavedUpload{}, fmt.Errorf("save document: %w", err)
	}
	log.Printf("[docs] document saved: %s", path)

	return SavedUpload{DocumentID: docID, DocumentName: filename, FilePath: path}, nil
}

// LoadAndProcess loads a single saved upload and splits it into sanitized
// chunks ready for indexing.
func (h *UploadHandler) LoadAndProcess(path string) ([]Document, error) {
	docs, err := LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("process uploaded file %s: %w", path, err)
	}
	return Sanitize(h.Splitter.Split(docs)), nil
}

// UploadStats summarizes what has been uploaded so far.
type UploadStats struct {
	TotalFiles int            `json:"total_files"`
	FileTypes  map[string]int `json:"file_types"`
}

// Stats counts stored uploads per extension.
func (h *UploadHandler) Stats() UploadStats {
	stats := UploadStats{FileTypes: map[string]int{}}
	entries, err := os.ReadDir(h.UploadsFolder)
	if err != nil {
		log.Printf("[docs] error reading uploads folder: %v", err)
		return stats
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		stats.TotalFiles++
		stats.FileTypes[strings.ToLower(filepath.Ext(e.Name()))]++
	}
	return stats
}
