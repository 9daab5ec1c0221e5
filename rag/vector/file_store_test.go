package vector

import (
	"context"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"districtguide/rag"
)

const fakeDim = 32

// fakeEmbedder is a deterministic bag-of-words embedder: texts sharing words
// get similar vectors, so nearest-neighbor behavior is predictable in tests.
type fakeEmbedder struct {
	calls int
}

func (f *fakeEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	f.calls++
	out := make([][]float64, len(texts))
	for i, text := range texts {
		vec := make([]float64, fakeDim)
		for _, word := range strings.Fields(strings.ToLower(text)) {
			h := fnv.New32a()
			h.Write([]byte(strings.Trim(word, ".,!?;:()")))
			vec[h.Sum32()%fakeDim]++
		}
		out[i] = vec
	}
	return out, nil
}

func newTestStore(t *testing.T, dir string) *FileStore {
	t.Helper()
	svc := NewEmbeddingService(&fakeEmbedder{}, "fake-embedding-v1")
	store, err := NewFileStore(svc, StoreConfig{Collection: "test_collection", PersistDir: dir})
	require.NoError(t, err)
	return store
}

func testDocs() []rag.Document {
	return []rag.Document{
		{ID: "1", Content: "The superintendent is Jane Doe.", Source: "https://example/about", Title: "About"},
		{ID: "2", Content: "School buses run every weekday morning.", Source: "https://example/transport", Title: "Transportation"},
		{ID: "3", Content: "The board of trustees meets monthly.", Source: "https://example/board", Title: "Board"},
	}
}

func TestBuildIndex_EmptyCorpus(t *testing.T) {
	dir := t.TempDir()
	store := newTestStore(t, dir)

	err := store.BuildIndex(context.Background(), nil)
	require.ErrorIs(t, err, rag.ErrEmptyCorpus)

	_, statErr := os.Stat(filepath.Join(dir, "test_collection.json"))
	assert.True(t, os.IsNotExist(statErr), "no index file may be written for an empty corpus")
}

func TestBuildIndexAndSearch(t *testing.T) {
	store := newTestStore(t, t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.BuildIndex(ctx, testDocs()))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	results, err := store.Search(ctx, "Who is the superintendent?", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "https://example/about", results[0].Document.Source)
}

func TestSearch_TopKBounds(t *testing.T) {
	store := newTestStore(t, t.TempDir())
	ctx := context.Background()
	require.NoError(t, store.BuildIndex(ctx, testDocs()))

	results, err := store.Search(ctx, "school", 10)
	require.NoError(t, err)
	assert.Len(t, results, 3, "never more results than indexed documents")

	known := map[string]bool{}
	for _, d := range testDocs() {
		known[d.Source] = true
	}
	for _, r := range results {
		assert.True(t, known[r.Document.Source], "result %q not in the built index", r.Document.Source)
	}

	results, err = store.Search(ctx, "school", 5)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(results), 5)
}

func TestSearch_Deterministic(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	sources := func(rs []rag.SearchResult) []string {
		out := make([]string, len(rs))
		for i, r := range rs {
			out[i] = r.Document.Source
		}
		return out
	}

	store := newTestStore(t, dir)
	require.NoError(t, store.BuildIndex(ctx, testDocs()))
	first, err := store.Search(ctx, "When does the board meet?", 3)
	require.NoError(t, err)

	// Rebuild from the same corpus and repeat the query.
	require.NoError(t, store.BuildIndex(ctx, testDocs()))
	second, err := store.Search(ctx, "When does the board meet?", 3)
	require.NoError(t, err)

	assert.Equal(t, sources(first), sources(second))
}

func TestPersistenceRoundtrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store := newTestStore(t, dir)
	require.NoError(t, store.BuildIndex(ctx, testDocs()))
	require.NoError(t, store.Close())

	reopened := newTestStore(t, dir)
	assert.True(t, reopened.Ready())

	count, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	results, err := reopened.Search(ctx, "weekday morning buses", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "https://example/transport", results[0].Document.Source)
}

func TestModelMismatchRejected(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store := newTestStore(t, dir)
	require.NoError(t, store.BuildIndex(ctx, testDocs()))

	other := NewEmbeddingService(&fakeEmbedder{}, "fake-embedding-v2")
	_, err := NewFileStore(other, StoreConfig{Collection: "test_collection", PersistDir: dir})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding model")
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store := newTestStore(t, dir)
	require.NoError(t, store.BuildIndex(ctx, testDocs()))
	require.NoError(t, store.Clear(ctx))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, statErr := os.Stat(filepath.Join(dir, "test_collection.json"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSearch_EmptyIndex(t *testing.T) {
	store := newTestStore(t, t.TempDir())

	results, err := store.Search(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}
