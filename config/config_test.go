package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Len(t, cfg.Sources, 14)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.CrawlDelay)
	assert.Equal(t, "./index_data", cfg.PersistDir)
	assert.Equal(t, "district_guide", cfg.CollectionName)
	assert.Equal(t, 5, cfg.TopK)
	assert.Equal(t, BackendFile, cfg.Backend)
}

func TestLoad_SourceOverride(t *testing.T) {
	t.Setenv("SOURCE_URLS", "https://a.example/, https://b.example/about ,")

	cfg := Load()
	assert.Equal(t, []string{"https://a.example/", "https://b.example/about"}, cfg.Sources)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FETCH_TIMEOUT_SECS", "3")
	t.Setenv("CRAWL_DELAY_MS", "0")
	t.Setenv("RETRIEVE_TOP_K", "7")
	t.Setenv("VECTOR_BACKEND", "redis")

	cfg := Load()
	assert.Equal(t, 3*time.Second, cfg.FetchTimeout)
	assert.Equal(t, time.Duration(0), cfg.CrawlDelay)
	assert.Equal(t, 7, cfg.TopK)
	assert.Equal(t, BackendRedis, cfg.Backend)
}
