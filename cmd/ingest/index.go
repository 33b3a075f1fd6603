package main

import (
	"fmt"
	"time"

	"buddy-tutor-be/internal/bootstrap"
	"buddy-tutor-be/internal/pkg/logger"
	"buddy-tutor-be/pkg/ingest"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index <pdf>",
	Short: "Chunk a textbook PDF and upsert it into the passage store",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().String("strategy", "", "Chunking strategy: chars or sentences (overrides CHUNK_STRATEGY)")
	indexCmd.Flags().String("source", "", "Source tag stored with every chunk (defaults to RETRIEVAL_SOURCE)")
	indexCmd.Flags().Int("batch", 32, "Chunks per upsert")
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if s, _ := cmd.Flags().GetString("strategy"); s != "" {
		cfg.Retrieval.ChunkStrategy = s
	}
	source, _ := cmd.Flags().GetString("source")
	if source == "" {
		source = cfg.Retrieval.SourceFilter
	}
	batch, _ := cmd.Flags().GetInt("batch")

	chunker, err := bootstrap.NewChunker(cfg.Retrieval)
	if err != nil {
		return err
	}

	started := time.Now()
	pages, err := ingest.ReadPDF(args[0])
	if err != nil {
		return err
	}
	color.Cyan("📖 Read %d pages from %s", len(pages), args[0])

	store, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	indexer := ingest.NewIndexer(store, chunker, logger.NewIsolatedLogger(cfg.App.LogFilePath),
		ingest.WithSource(source),
		ingest.WithBatchSize(batch),
		ingest.WithProgress(func(done, total int) {
			fmt.Printf("\r   upserted %d/%d chunks", done, total)
		}),
	)

	stats, err := indexer.Index(cmd.Context(), pages)
	fmt.Println()
	if err != nil {
		color.Yellow("⚠ Stopped after %d of %d chunks", stats.Persisted, stats.Chunks)
		return err
	}

	color.Green("✓ Indexed %d chunks (%d skipped) from %d pages in %s",
		stats.Persisted, stats.Skipped, stats.Pages, time.Since(started).Round(time.Millisecond))
	return nil
}
