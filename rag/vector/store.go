package vector

import (
	"context"

	"districtguide/rag"
)

// Store is the vector index contract shared by the file and Redis backends.
//
// BuildIndex always writes a fresh index; there are no merge or upsert
// semantics. Avoiding a double build for the same collection is the cache
// layer's job, not the store's.
type Store interface {
	// BuildIndex embeds every document and replaces the index contents.
	// Returns rag.ErrEmptyCorpus when docs is empty.
	BuildIndex(ctx context.Context, docs []rag.Document) error

	// Search embeds the query and returns the topK most similar documents.
	Search(ctx context.Context, query string, topK int) ([]rag.SearchResult, error)

	// Count returns the number of indexed documents.
	Count(ctx context.Context) (int64, error)

	// Clear removes the index contents, including persisted state.
	Clear(ctx context.Context) error

	// Close releases connections or file handles.
	Close() error
}

// StoreConfig holds configuration shared by store implementations.
type StoreConfig struct {
	// Collection is the logical namespace of one corpus inside shared storage.
	Collection string

	// PersistDir is the on-disk location for file-backed indexes.
	PersistDir string
}

// DefaultStoreConfig returns default configuration.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Collection: "district_guide",
		PersistDir: "./index_data",
	}
}
