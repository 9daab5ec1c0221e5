package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"districtguide/config"
	"districtguide/providers"
	"districtguide/pubsub"
	"districtguide/rag"
	"districtguide/rag/answer"
	"districtguide/rag/corpus"
	"districtguide/rag/pipeline"
	"districtguide/rag/scrape"
	"districtguide/rag/vector"
	"districtguide/tui"
)

func init() {
	// Load .env file if exists
	_ = godotenv.Load()
}

func main() {
	ctx := context.Background()
	cfg := config.Load()

	embedder, embeddingModel, err := providers.CreateEmbeddingModel(ctx)
	if err != nil {
		fatalConfig(err)
	}

	chatModel, err := providers.CreateChatModel(ctx)
	if err != nil {
		fatalConfig(err)
	}

	embeddingSvc := vector.NewEmbeddingService(embedder, embeddingModel)

	store, err := newStore(ctx, embeddingSvc, cfg)
	if err != nil {
		log.Fatalf("failed to open vector store: %v", err)
	}
	defer store.Close()

	broker := pubsub.NewBroker[corpus.Progress]()
	defer broker.Shutdown()

	fetcher := scrape.NewFetcher(cfg.FetchTimeout)
	builder := corpus.NewBuilder(fetcher, cfg.Sources, cfg.CrawlDelay, broker)
	synth := answer.NewSynthesizer(chatModel)
	pipe := pipeline.New(builder, store, synth, cfg.Sources, cfg.TopK)

	model := tui.InitialModel(pipe, broker, os.Getenv("OPENAI_API_KEY") != "" || os.Getenv("GEMINI_API_KEY") != "")
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		log.Fatalf("program error: %v", err)
	}
}

// newStore selects the vector store backend from configuration.
func newStore(ctx context.Context, embeddingSvc *vector.EmbeddingService, cfg config.Config) (vector.Store, error) {
	storeCfg := vector.StoreConfig{
		Collection: cfg.CollectionName,
		PersistDir: cfg.PersistDir,
	}

	switch cfg.Backend {
	case config.BackendRedis:
		return vector.NewRedisStore(ctx, embeddingSvc, storeCfg, vector.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			PoolSize: cfg.RedisPoolSize,
		})
	default:
		return vector.NewFileStore(embeddingSvc, storeCfg)
	}
}

// fatalConfig exits with an actionable message for missing credentials.
func fatalConfig(err error) {
	var cerr *rag.ConfigurationError
	if errors.As(err, &cerr) {
		fmt.Fprintf(os.Stderr, "missing required environment variable: %s\n", cerr.Var)
		fmt.Fprintln(os.Stderr, "set it in your environment or in a .env file and restart")
		os.Exit(1)
	}
	log.Fatalf("initialization failed: %v", err)
}
