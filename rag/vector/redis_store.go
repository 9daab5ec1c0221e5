package vector

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/redis/go-redis/v9"

	"districtguide/rag"
)

const (
	fieldContent  = "content"
	fieldVector   = "vector"
	fieldSource   = "source"
	fieldTitle    = "title"
	fieldModel    = "embedding_model"
	fieldScore    = "score"
	redisKeySep   = ":"
	defaultEFCons = 200
	defaultM      = 16
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// RedisStore implements Store on top of RediSearch vector search with an
// HNSW index and cosine metric. It is the backend of choice when the index
// should outlive the local filesystem.
type RedisStore struct {
	client       *redis.Client
	embeddingSvc *EmbeddingService
	config       StoreConfig
}

// NewRedisStore connects to Redis and prepares a store for the collection.
func NewRedisStore(ctx context.Context, embeddingSvc *EmbeddingService, cfg StoreConfig, rcfg RedisConfig) (*RedisStore, error) {
	if embeddingSvc == nil {
		return nil, fmt.Errorf("embedding service is required")
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultStoreConfig().Collection
	}

	client := redis.NewClient(&redis.Options{
		Addr:     rcfg.Addr,
		Password: rcfg.Password,
		DB:       rcfg.DB,
		PoolSize: rcfg.PoolSize,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client:       client,
		embeddingSvc: embeddingSvc,
		config:       cfg,
	}, nil
}

func (s *RedisStore) keyPrefix() string {
	return s.config.Collection + redisKeySep
}

func (s *RedisStore) key(id string) string {
	return s.keyPrefix() + id
}

// createIndex creates the HNSW index for the collection. dim must match the
// embedding model output.
func (s *RedisStore) createIndex(ctx context.Context, dim int) error {
	_, err := s.client.Do(ctx, "FT.CREATE", s.config.Collection,
		"ON", "HASH",
		"PREFIX", "1", s.keyPrefix(),
		"SCHEMA",
		fieldVector, "VECTOR", "HNSW", "10",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(dim),
		"DISTANCE_METRIC", "COSINE",
		"EF_CONSTRUCTION", strconv.Itoa(defaultEFCons),
		"M", strconv.Itoa(defaultM),
		fieldContent, "TEXT",
		fieldSource, "TAG",
		fieldTitle, "TEXT",
	).Result()
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

// BuildIndex embeds the documents and replaces the collection's index.
func (s *RedisStore) BuildIndex(ctx context.Context, docs []rag.Document) error {
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

	// Drop any prior index together with its documents; a build is always
	// a full replacement.
	_, _ = s.client.Do(ctx, "FT.DROPINDEX", s.config.Collection, "DD").Result()

	if err := s.createIndex(ctx, len(vectors[0])); err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	for i, doc := range docs {
		id := doc.ID
		if id == "" {
			id = strconv.Itoa(i)
		}
		pipe.HSet(ctx, s.key(id),
			fieldContent, doc.Content,
			fieldVector, encodeVector(vectors[i]),
			fieldSource, doc.Source,
			fieldTitle, doc.Title,
			fieldModel, s.embeddingSvc.Model(),
		)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert documents: %w", err)
	}
	return nil
}

// Search embeds the query and runs a KNN search over the collection.
func (s *RedisStore) Search(ctx context.Context, query string, topK int) ([]rag.SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	if topK <= 0 {
		topK = 5
	}

	queryVector, err := s.embeddingSvc.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	queryStr := fmt.Sprintf("*=>[KNN %d @%s $query_vector AS %s]", topK, fieldVector, fieldScore)

	result, err := s.client.Do(ctx, "FT.SEARCH", s.config.Collection, queryStr,
		"PARAMS", "2", "query_vector", encodeVector(queryVector),
		"RETURN", "4", fieldContent, fieldSource, fieldTitle, fieldScore,
		"SORTBY", fieldScore,
		"LIMIT", "0", strconv.Itoa(topK),
		"DIALECT", "2",
	).Result()
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	return s.parseSearchResults(result)
}

// parseSearchResults decodes the FT.SEARCH reply: a count followed by
// alternating key and field-value pairs.
func (s *RedisStore) parseSearchResults(result interface{}) ([]rag.SearchResult, error) {
	values, ok := result.([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected search reply format")
	}
	if len(values) < 2 {
		return []rag.SearchResult{}, nil
	}

	var results []rag.SearchResult
	for i := 1; i+1 < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			continue
		}
		fields, ok := values[i+1].([]interface{})
		if !ok {
			continue
		}

		doc := rag.Document{ID: key}
		var score float32
		for j := 0; j+1 < len(fields); j += 2 {
			name, _ := fields[j].(string)
			val, _ := fields[j+1].(string)
			switch name {
			case fieldContent:
				doc.Content = val
			case fieldSource:
				doc.Source = val
			case fieldTitle:
				doc.Title = val
			case fieldScore:
				if dist, err := strconv.ParseFloat(val, 32); err == nil {
					// RediSearch returns cosine distance; flip to similarity.
					score = 1 - float32(dist)
				}
			}
		}

		results = append(results, rag.SearchResult{Document: doc, Score: score})
	}

	return results, nil
}

// Count reads num_docs from FT.INFO.
func (s *RedisStore) Count(ctx context.Context) (int64, error) {
	info, err := s.client.Do(ctx, "FT.INFO", s.config.Collection).Result()
	if err != nil {
		return 0, nil
	}

	values, ok := info.([]interface{})
	if !ok {
		return 0, fmt.Errorf("unexpected info reply format")
	}

	for i := 0; i+1 < len(values); i += 2 {
		if key, ok := values[i].(string); ok && key == "num_docs" {
			switch v := values[i+1].(type) {
			case int64:
				return v, nil
			case string:
				n, _ := strconv.ParseInt(v, 10, 64)
				return n, nil
			}
		}
	}
	return 0, nil
}

// Clear drops the index and its documents. A missing index is not an error.
func (s *RedisStore) Clear(ctx context.Context) error {
	_, _ = s.client.Do(ctx, "FT.DROPINDEX", s.config.Collection, "DD").Result()
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// encodeVector packs a float32 vector into the little-endian byte layout
// RediSearch expects for FLOAT32 vector fields.
func encodeVector(vector []float32) []byte {
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}
