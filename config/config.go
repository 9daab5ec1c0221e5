package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Backend selects the vector store implementation.
type Backend string

const (
	BackendFile  Backend = "file"
	BackendRedis Backend = "redis"
)

// defaultSources is the fixed list of district pages the corpus is built from.
var defaultSources = []string{
	"https://www.argyleisd.com/",
	"https://www.argyleisd.com/about",
	"https://www.argyleisd.com/board-of-trustees",
	"https://www.argyleisd.com/schools",
	"https://www.argyleisd.com/departments",
	"https://www.argyleisd.com/calendars",
	"https://www.argyleisd.com/employment",
	"https://www.argyleisd.com/departments/transportation",
	"https://www.argyleisd.com/departments/human-resources",
	"https://www.argyleisd.com/all-news",
	"https://www.argyleisd.com/about/faqs",
	"https://www.argyleisd.com/future/bonds",
	"https://www.argyleisd.com/staff",
	"https://www.argyleisd.com/directory",
}

// Config holds all runtime settings. Values come from environment variables
// with sensible defaults; a .env file is loaded by main before this runs.
type Config struct {
	Sources        []string
	FetchTimeout   time.Duration
	CrawlDelay     time.Duration
	PersistDir     string
	CollectionName string
	TopK           int
	Backend        Backend

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int
}

// Load builds a Config from the environment.
func Load() Config {
	cfg := Config{
		Sources:        defaultSources,
		FetchTimeout:   time.Duration(getEnvInt("FETCH_TIMEOUT_SECS", 10)) * time.Second,
		CrawlDelay:     time.Duration(getEnvInt("CRAWL_DELAY_MS", 500)) * time.Millisecond,
		PersistDir:     getEnvString("PERSIST_DIR", "./index_data"),
		CollectionName: getEnvString("COLLECTION_NAME", "district_guide"),
		TopK:           getEnvInt("RETRIEVE_TOP_K", 5),
		Backend:        Backend(getEnvString("VECTOR_BACKEND", string(BackendFile))),
		RedisAddr:      getEnvString("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnvString("REDIS_PASSWORD", ""),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		RedisPoolSize:  getEnvInt("REDIS_POOL_SIZE", 10),
	}

	if raw := os.Getenv("SOURCE_URLS"); raw != "" {
		var urls []string
		for _, u := range strings.Split(raw, ",") {
			if u = strings.TrimSpace(u); u != "" {
				urls = append(urls, u)
			}
		}
		if len(urls) > 0 {
			cfg.Sources = urls
		}
	}

	return cfg
}

// getEnvString reads a string from environment variable
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer from environment variable
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return defaultVal
}
