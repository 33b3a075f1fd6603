package retrieval

import (
	"context"
	"fmt"
	"runtime"

	"buddy-tutor-be/pkg/embedding"

	"github.com/philippgille/chromem-go"
)

// ChromemStore keeps the passage index in a chromem-go database. With a
// persist path the index lives in a directory on disk.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedder   embedding.EmbeddingProvider
}

var _ Store = &ChromemStore{}

// NewChromemStore opens (or creates) the collection. An empty persistPath keeps
// the index in memory.
func NewChromemStore(persistPath, collectionName string, embedder embedding.EmbeddingProvider) (*ChromemStore, error) {
	var db *chromem.DB
	if persistPath != "" {
		var err error
		db, err = chromem.NewPersistentDB(persistPath, false)
		if err != nil {
			return nil, fmt.Errorf("failed to open chromem index at %s: %w", persistPath, err)
		}
	} else {
		db = chromem.NewDB()
	}

	// Embeddings are computed here and passed explicitly, so the collection
	// gets no embedding func of its own.
	collection, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create collection %s: %w", collectionName, err)
	}

	return &ChromemStore{db: db, collection: collection, embedder: embedder}, nil
}

func (s *ChromemStore) Search(ctx context.Context, query string, k int, filter map[string]string) ([]Passage, error) {
	if k <= 0 {
		return nil, nil
	}
	// chromem rejects nResults above the collection size.
	if count := s.collection.Count(); count == 0 {
		return nil, nil
	} else if k > count {
		k = count
	}

	emb, err := s.embedder.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	res, err := s.collection.QueryEmbedding(ctx, emb.Embedding.Values, k, filter, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query chromem collection: %w", err)
	}

	passages := make([]Passage, 0, len(res))
	for _, doc := range res {
		passages = append(passages, passageFromMetadata(doc.Content, doc.Metadata, doc.Similarity))
	}
	return passages, nil
}

func (s *ChromemStore) Upsert(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	chromemDocs := make([]chromem.Document, 0, len(docs))
	for _, d := range docs {
		emb, err := s.embedder.Generate(ctx, d.Text, embedding.TaskRetrievalDocument)
		if err != nil {
			return fmt.Errorf("embed chunk %s: %w", d.ID, err)
		}
		chromemDocs = append(chromemDocs, chromem.Document{
			ID:        d.ID,
			Content:   d.Text,
			Metadata:  d.Metadata,
			Embedding: emb.Embedding.Values,
		})
	}

	if err := s.collection.AddDocuments(ctx, chromemDocs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents to chromem collection: %w", err)
	}
	return nil
}

func (s *ChromemStore) Count(ctx context.Context) (int, error) {
	return s.collection.Count(), nil
}
