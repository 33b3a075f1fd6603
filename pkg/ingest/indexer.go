// Package ingest turns the textbook PDF into metadata-tagged chunks and
// loads them into a vector store.
package ingest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"buddy-tutor-be/internal/pkg/logger"
	"buddy-tutor-be/pkg/rag/retrieval"
)

const (
	MinChunkChars    = 50
	defaultBatchSize = 32
	logModule        = "Ingest"
)

type Stats struct {
	Pages     int
	Chunks    int
	Skipped   int
	Persisted int
}

type Indexer struct {
	store     retrieval.Store
	chunker   Chunker
	source    string
	batchSize int
	logger    logger.ILogger
	progress  func(done, total int)
}

type Option func(*Indexer)

func WithSource(source string) Option {
	return func(ix *Indexer) {
		ix.source = source
	}
}

func WithBatchSize(n int) Option {
	return func(ix *Indexer) {
		if n > 0 {
			ix.batchSize = n
		}
	}
}

// WithProgress is called after every persisted batch.
func WithProgress(fn func(done, total int)) Option {
	return func(ix *Indexer) {
		ix.progress = fn
	}
}

func NewIndexer(store retrieval.Store, chunker Chunker, log logger.ILogger, opts ...Option) *Indexer {
	ix := &Indexer{
		store:     store,
		chunker:   chunker,
		source:    retrieval.DefaultSource,
		batchSize: defaultBatchSize,
		logger:    log,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// BuildDocuments chunks every page and tags each chunk with source, page
// number and a "<page>-<index>" chunk id. Chunks of MinChunkChars or fewer
// are dropped.
func (ix *Indexer) BuildDocuments(pages []Page) ([]retrieval.Document, int) {
	var (
		docs    []retrieval.Document
		skipped int
	)
	for _, page := range pages {
		index := 0
		for _, chunk := range ix.chunker.Chunk(page.Text) {
			chunk = strings.TrimSpace(chunk)
			if utf8.RuneCountInString(chunk) <= MinChunkChars {
				skipped++
				continue
			}
			chunkID := fmt.Sprintf("%d-%d", page.Number, index)
			index++
			docs = append(docs, retrieval.Document{
				ID:   ix.source + "#" + chunkID,
				Text: chunk,
				Metadata: map[string]string{
					retrieval.MetaSource:     ix.source,
					retrieval.MetaPageNumber: strconv.Itoa(page.Number),
					retrieval.MetaChunkID:    chunkID,
				},
			})
		}
	}
	return docs, skipped
}

// Index chunks pages and upserts them batch by batch. Re-running on the same
// pages overwrites the same ids.
func (ix *Indexer) Index(ctx context.Context, pages []Page) (Stats, error) {
	docs, skipped := ix.BuildDocuments(pages)
	stats := Stats{Pages: len(pages), Chunks: len(docs), Skipped: skipped}

	ix.logger.Info(logModule, "Chunked textbook", map[string]interface{}{
		"pages":   stats.Pages,
		"chunks":  stats.Chunks,
		"skipped": stats.Skipped,
		"source":  ix.source,
	})

	for start := 0; start < len(docs); start += ix.batchSize {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		end := start + ix.batchSize
		if end > len(docs) {
			end = len(docs)
		}
		if err := ix.store.Upsert(ctx, docs[start:end]); err != nil {
			return stats, fmt.Errorf("upsert chunks %d-%d: %w", start, end, err)
		}
		stats.Persisted = end
		if ix.progress != nil {
			ix.progress(end, len(docs))
		}
	}
	return stats, nil
}
