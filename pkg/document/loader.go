package document

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// LoadFromFolder walks folder recursively and loads every supported file.
// A missing folder is created and yields an empty result. Per-file load
// failures are logged and skipped; they never abort the scan.
func LoadFromFolder(folder string) ([]Document, error) {
	if _, err := os.Stat(folder); os.IsNotExist(err) {
		if err := os.MkdirAll(folder, 0o755); err != nil {
			return nil, fmt.Errorf("create folder %s: %w", folder, err)
		}
		log.Printf("[docs] created folder: %s", folder)
		return nil, nil
	}

	var docs []Document
	err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Printf("[docs] walk error at %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		loaded, err := LoadFile(path)
		if err != nil {
			log.Printf("[docs] error loading %s: %v", path, err)
			return nil
		}
		docs = append(docs, loaded...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[docs] loaded %d documents from %s", len(docs), folder)
	return docs, nil
}

// LoadFolders loads documents from every folder in order.
func LoadFolders(folders []string) ([]Document, error) {
	var all []Document
	for _, folder := range folders {
		docs, err := LoadFromFolder(folder)
		if err != nil {
			return nil, err
		}
		all = append(all, docs...)
	}
	return all, nil
}

// LoadFile dispatches on the file extension. Unsupported extensions are
// skipped with an empty result, not an error.
func LoadFile(path string) ([]Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return loadText(path)
	case ".pdf":
		return loadPDF(path)
	default:
		log.Printf("[docs] unsupported file type, skipping: %s", path)
		return nil, nil
	}
}

func loadText(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read text file: %w", err)
	}
	content := strings.ReplaceAll(string(data), "\r\n", "\n")
	return []Document{{Content: content, Metadata: Metadata{Source: path}}}, nil
}

// loadPDF produces one Document per page so answers can cite page numbers.
// Pages that fail text extraction (e.g. image-only) are skipped.
func loadPDF(path string) ([]Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var docs []Document
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		text, err := page.GetPlainText(nil)
		if err != nil {
			log.Printf("[docs] skipping page %d of %s: %v", i, path, err)
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		docs = append(docs, Document{Content: text, Metadata: Metadata{Source: path, Page: i}})
	}
	return docs, nil
}
