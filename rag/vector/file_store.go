package vector

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"districtguide/rag"
)

const storeVersion = "1"

// indexFile is the JSON structure persisted for one collection.
type indexFile struct {
	Version        string         `json:"version"`
	Collection     string         `json:"collection"`
	EmbeddingModel string         `json:"embedding_model"`
	CreatedAt      string         `json:"created_at"`
	Documents      []rag.Document `json:"documents"`
}

// FileStore is a directory-persisted vector index with brute-force cosine
// search. One collection maps to one JSON file under the persist directory.
// The index is written once per build cycle and read-only afterward.
type FileStore struct {
	embeddingSvc *EmbeddingService
	config       StoreConfig

	mu   sync.RWMutex
	docs []rag.Document
}

// NewFileStore creates the store and loads any existing index for the
// collection. An index built with a different embedding model is rejected:
// querying it would be a silent correctness bug.
func NewFileStore(embeddingSvc *EmbeddingService, cfg StoreConfig) (*FileStore, error) {
	if embeddingSvc == nil {
		return nil, fmt.Errorf("embedding service is required")
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultStoreConfig().Collection
	}
	if cfg.PersistDir == "" {
		cfg.PersistDir = DefaultStoreConfig().PersistDir
	}

	if err := os.MkdirAll(cfg.PersistDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create persist directory: %w", err)
	}

	s := &FileStore{
		embeddingSvc: embeddingSvc,
		config:       cfg,
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	return s, nil
}

// indexPath returns the on-disk location of the collection file.
func (s *FileStore) indexPath() string {
	return filepath.Join(s.config.PersistDir, s.config.Collection+".json")
}

// Ready reports whether a built index is loaded.
func (s *FileStore) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs) > 0
}

// load reads the persisted index if one exists.
func (s *FileStore) load() error {
	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read index file: %w", err)
	}

	var idx indexFile
	if err := json.Unmarshal(data, &idx); err != nil {
		return fmt.Errorf("failed to parse index file: %w", err)
	}

	if idx.EmbeddingModel != "" && idx.EmbeddingModel != s.embeddingSvc.Model() {
		return fmt.Errorf("index %s was built with embedding model %q but %q is configured; rebuild the index",
			s.config.Collection, idx.EmbeddingModel, s.embeddingSvc.Model())
	}

	s.mu.Lock()
	s.docs = idx.Documents
	s.mu.Unlock()
	return nil
}

// BuildIndex embeds every document and writes a fresh index file. Prior
// contents for the collection are replaced wholesale.
func (s *FileStore) BuildIndex(ctx context.Context, docs []rag.Document) error {
	if len(docs) == 0 {
		return rag.ErrEmptyCorpus
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}

	vectors, err := s.embeddingSvc.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed corpus: %w", err)
	}

	indexed := make([]rag.Document, len(docs))
	for i, doc := range docs {
		doc.Vector = vectors[i]
		indexed[i] = doc
	}

	idx := indexFile{
		Version:        storeVersion,
		Collection:     s.config.Collection,
		EmbeddingModel: s.embeddingSvc.Model(),
		CreatedAt:      time.Now().Format(time.RFC3339),
		Documents:      indexed,
	}

	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}
	if err := os.WriteFile(s.indexPath(), data, 0o644); err != nil {
		return fmt.Errorf("failed to write index file: %w", err)
	}

	s.mu.Lock()
	s.docs = indexed
	s.mu.Unlock()
	return nil
}

// Search embeds the query and returns the topK nearest documents by cosine
// similarity. Ties keep insertion order, so results are deterministic for a
// fixed index and query.
func (s *FileStore) Search(ctx context.Context, query string, topK int) ([]rag.SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	if topK <= 0 {
		topK = 5
	}

	s.mu.RLock()
	docCount := len(s.docs)
	s.mu.RUnlock()
	if docCount == 0 {
		return []rag.SearchResult{}, nil
	}

	queryVector, err := s.embeddingSvc.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]rag.SearchResult, 0, len(s.docs))
	for _, doc := range s.docs {
		results = append(results, rag.SearchResult{
			Document: doc,
			Score:    cosineSimilarity(queryVector, doc.Vector),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topK > len(results) {
		topK = len(results)
	}
	return results[:topK], nil
}

// Count returns the number of indexed documents.
func (s *FileStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.docs)), nil
}

// Clear drops the in-memory index and deletes the persisted file.
func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs = nil
	if err := os.Remove(s.indexPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete index file: %w", err)
	}
	return nil
}

// Close is a no-op for the file-backed store.
func (s *FileStore) Close() error { return nil }

// cosineSimilarity computes the cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float32
	for i := 0; i < len(a); i++ {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / float32(math.Sqrt(float64(normA))*math.Sqrt(float64(normB)))
}
