package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

const indexFileName = "index.json"

// LocalStore persists records as a JSON index inside a directory and answers
// queries with in-memory cosine similarity. Suitable for corpora that fit in
// memory, which is the sizing this service is built for.
type LocalStore struct {
	Dir string

	mu      sync.RWMutex
	records []Record
	opened  bool
}

func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{Dir: dir}
}

func (s *LocalStore) indexPath() string { return filepath.Join(s.Dir, indexFileName) }

func (s *LocalStore) Create(_ context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.RemoveAll(s.Dir); err != nil {
		return fmt.Errorf("remove existing store: %w", err)
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	if err := s.writeIndex(records); err != nil {
		return err
	}
	s.records = records
	s.opened = true
	log.Printf("[store] created local vector store with %d records at %s", len(records), s.Dir)
	return nil
}

func (s *LocalStore) Open(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opened {
		return nil
	}
	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		return fmt.Errorf("open local store: %w", err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("decode local store index: %w", err)
	}
	s.records = records
	s.opened = true
	log.Printf("[store] opened local vector store with %d records", len(records))
	return nil
}

func (s *LocalStore) Add(_ context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.opened {
		return fmt.Errorf("local store is not open")
	}
	merged := append(append([]Record(nil), s.records...), records...)
	if err := s.writeIndex(merged); err != nil {
		return err
	}
	s.records = merged
	return nil
}

func (s *LocalStore) Search(_ context.Context, query []float32, k int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.opened {
		return nil, fmt.Errorf("local store is not open")
	}
	if k <= 0 {
		return nil, nil
	}

	type scored struct {
		rec   Record
		score float64
	}
	all := make([]scored, 0, len(s.records))
	for _, rec := range s.records {
		all = append(all, scored{rec: rec, score: cosineSimilarity(query, rec.Embedding)})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].score > all[j].score })
	if len(all) > k {
		all = all[:k]
	}
	out := make([]Record, len(all))
	for i, sc := range all {
		out[i] = sc.rec
	}
	return out, nil
}

func (s *LocalStore) Exists(_ context.Context) (bool, error) {
	if _, err := os.Stat(s.indexPath()); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *LocalStore) BuiltAt(_ context.Context) (time.Time, error) {
	info, err := os.Stat(s.indexPath())
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

func (s *LocalStore) Drop(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.opened = false
	return os.RemoveAll(s.Dir)
}

// writeIndex must be called with the lock held.
func (s *LocalStore) writeIndex(records []Record) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	if err := os.WriteFile(s.indexPath(), data, 0o644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}
