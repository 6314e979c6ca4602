package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Entry is one stored text with its embedding.
type Entry struct {
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
}

// SearchResult pairs a stored text with its similarity to a query.
type SearchResult struct {
	Text  string
	Score float32
}

// Store is a file-backed vector store searched by linear-scan cosine
// similarity. Entries keep insertion order; Save writes the whole store
// atomically so a crash never leaves a truncated file.
type Store struct {
	path string

	mu      sync.RWMutex
	entries []Entry
}

// NewStore opens the store at path. A missing file yields an empty store;
// the file is created on first Save.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("vector store: read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &s.entries); err != nil {
		return nil, fmt.Errorf("vector store: parse %s: %w", path, err)
	}
	return s, nil
}

// Add appends an entry. The caller is expected to Save afterwards.
func (s *Store) Add(text string, embedding []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, Entry{Text: text, Embedding: embedding})
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Entries returns a copy of the stored entries in insertion order.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Search returns the topK most similar entries to the query vector,
// highest score first. Ties keep insertion order. Fewer than topK entries
// returns them all.
func (s *Store) Search(query []float32, topK int) []SearchResult {
	if topK <= 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		idx   int
		score float32
	}
	all := make([]scored, len(s.entries))
	for i, e := range s.entries {
		all[i] = scored{idx: i, score: cosine(query, e.Embedding)}
	}

	sort.SliceStable(all, func(a, b int) bool {
		return all[a].score > all[b].score
	})

	if topK > len(all) {
		topK = len(all)
	}
	results := make([]SearchResult, topK)
	for i := 0; i < topK; i++ {
		results[i] = SearchResult{
			Text:  s.entries[all[i].idx].Text,
			Score: all[i].score,
		}
	}
	return results
}

// Save writes the store to disk via temp file and rename.
func (s *Store) Save() error {
	s.mu.RLock()
	entries := s.entries
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("vector store: marshal: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("vector store: create dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".vector_db-*.json")
	if err != nil {
		return fmt.Errorf("vector store: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("vector store: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("vector store: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("vector store: close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("vector store: rename into place: %w", err)
	}
	return nil
}

// cosine computes the dot product of two vectors. Embeddings are stored
// L2-normalized, so the dot product is the cosine similarity. Mismatched
// lengths score zero.
func cosine(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
