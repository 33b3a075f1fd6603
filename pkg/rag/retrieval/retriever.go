// Package retrieval is the passage lookup used by the tutor: embed the
// question, ask a vector store for the nearest textbook chunks, and hand them
// back as read-only passages.
package retrieval

import (
	"context"
	"strconv"
)

// Metadata keys written by the ingestion pipeline.
const (
	MetaSource     = "source"
	MetaPageNumber = "page_number"
	MetaChunkID    = "chunk_id"

	// DefaultSource is the source id of the indexed textbook.
	DefaultSource = "textbook.pdf"
)

// Passage is one retrieved chunk of textbook text.
type Passage struct {
	Text       string  `json:"text"`
	SourceID   string  `json:"sourceId"`
	PageNumber *int    `json:"pageNumber,omitempty"`
	Score      float32 `json:"score"`
}

// Document is one chunk handed to a store at ingestion time.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]string
}

// Retriever returns up to k passages ranked by similarity. filter is an
// exact-match metadata filter and may be nil.
type Retriever interface {
	Search(ctx context.Context, query string, k int, filter map[string]string) ([]Passage, error)
}

// Store is a Retriever that can also be populated and counted.
type Store interface {
	Retriever
	Upsert(ctx context.Context, docs []Document) error
	Count(ctx context.Context) (int, error)
}

// SourceFilter restricts a search to one named source document.
func SourceFilter(source string) map[string]string {
	if source == "" {
		return nil
	}
	return map[string]string{MetaSource: source}
}

func passageFromMetadata(text string, metadata map[string]string, score float32) Passage {
	p := Passage{
		Text:     text,
		SourceID: metadata[MetaSource],
		Score:    score,
	}
	if raw, ok := metadata[MetaPageNumber]; ok {
		if n, err := strconv.Atoi(raw); err == nil {
			p.PageNumber = &n
		}
	}
	return p
}
