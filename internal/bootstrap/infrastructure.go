package bootstrap

import (
	"context"
	"fmt"
	"log"

	"buddy-tutor-be/internal/config"
	"buddy-tutor-be/internal/repository/implementation"
	"buddy-tutor-be/pkg/database"
	"buddy-tutor-be/pkg/embedding"
	"buddy-tutor-be/pkg/ingest"
	"buddy-tutor-be/pkg/rag/retrieval"
)

// NewEmbedder builds the configured embedding backend wrapped in an LRU.
func NewEmbedder(cfg config.EmbeddingConfig) (embedding.EmbeddingProvider, error) {
	var base embedding.EmbeddingProvider
	switch cfg.Provider {
	case "ollama":
		base = embedding.NewOllamaProvider(cfg.BaseURL, cfg.Model)
	case "gemini":
		base = embedding.NewGeminiProvider(cfg.APIKey, cfg.Model)
	case "openai", "":
		base = embedding.NewOpenAIProvider(cfg.APIKey, cfg.BaseURL, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
	log.Printf("[INFO] Using Embedding Provider: %s (%s)", cfg.Provider, cfg.Model)

	if cfg.CacheSize <= 0 {
		return base, nil
	}
	return embedding.NewCachedProvider(base, cfg.CacheSize)
}

// NewPassageStore opens the chromem directory index or the pgvector table.
func NewPassageStore(ctx context.Context, cfg config.RetrievalConfig, embedder embedding.EmbeddingProvider, verboseSQL bool) (retrieval.Store, error) {
	switch cfg.Store {
	case "pgvector":
		db, err := database.NewGormDBFromDSN(cfg.DBConnection, verboseSQL)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		repo := implementation.NewPassageRepository(db, embedder)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return repo, nil
	case "chromem", "":
		return retrieval.NewChromemStore(cfg.IndexDir, cfg.Collection, embedder)
	default:
		return nil, fmt.Errorf("unsupported retrieval store: %s", cfg.Store)
	}
}

// NewChunker picks the ingestion chunking strategy.
func NewChunker(cfg config.RetrievalConfig) (ingest.Chunker, error) {
	switch cfg.ChunkStrategy {
	case "sentences":
		return ingest.NewSentenceChunker(cfg.TokenLimit, ingest.DefaultEncoding)
	case "chars", "":
		return ingest.NewCharChunker(cfg.ChunkSize, cfg.ChunkOverlap), nil
	default:
		return nil, fmt.Errorf("unsupported chunk strategy: %s", cfg.ChunkStrategy)
	}
}
