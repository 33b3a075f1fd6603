package main

import (
	"context"
	"fmt"

	"buddy-tutor-be/internal/bootstrap"
	"buddy-tutor-be/internal/config"
	"buddy-tutor-be/pkg/rag/retrieval"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "ingest",
	Short:        "Build and inspect the textbook passage index",
	Long:         "ingest reads a textbook PDF, chunks it and stores the embedded chunks in the configured passage store.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("store", "", "Passage store: chromem or pgvector (overrides RETRIEVAL_STORE)")
	rootCmd.PersistentFlags().String("index-dir", "", "Directory of the chromem index (overrides RETRIEVAL_INDEX_DIR)")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(statsCmd)
}

// loadConfig reads the environment, then applies persistent flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Load()
	if s, _ := cmd.Flags().GetString("store"); s != "" {
		cfg.Retrieval.Store = s
	}
	if d, _ := cmd.Flags().GetString("index-dir"); d != "" {
		cfg.Retrieval.IndexDir = d
	}
	if cfg.Retrieval.Store == "pgvector" && cfg.Retrieval.DBConnection == "" {
		return nil, fmt.Errorf("DB_CONNECTION_STRING is required for the pgvector store")
	}
	return cfg, nil
}

func openStore(ctx context.Context, cfg *config.Config) (retrieval.Store, error) {
	embedder, err := bootstrap.NewEmbedder(cfg.Embedding)
	if err != nil {
		return nil, err
	}
	return bootstrap.NewPassageStore(ctx, cfg.Retrieval, embedder, false)
}
