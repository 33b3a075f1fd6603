package implementation

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"buddy-tutor-be/internal/model"
	"buddy-tutor-be/pkg/embedding"
	"buddy-tutor-be/pkg/rag/retrieval"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PassageRepositoryImpl is the pgvector-backed passage store.
type PassageRepositoryImpl struct {
	db       *gorm.DB
	embedder embedding.EmbeddingProvider
}

var _ retrieval.Store = &PassageRepositoryImpl{}

func NewPassageRepository(db *gorm.DB, embedder embedding.EmbeddingProvider) *PassageRepositoryImpl {
	return &PassageRepositoryImpl{db: db, embedder: embedder}
}

// EnsureSchema installs the vector extension and migrates the passage table.
func (r *PassageRepositoryImpl) EnsureSchema(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("enable pgvector: %w", err)
	}
	return r.db.WithContext(ctx).AutoMigrate(&model.TextbookPassage{})
}

func (r *PassageRepositoryImpl) Search(ctx context.Context, query string, k int, filter map[string]string) ([]retrieval.Passage, error) {
	if k <= 0 {
		return nil, nil
	}

	emb, err := r.embedder.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// Cosine distance in pgvector is: 1 - cosine_similarity
	type result struct {
		model.TextbookPassage
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(emb.Embedding.Values)
	tx := r.db.WithContext(ctx).
		Model(&model.TextbookPassage{}).
		Select("textbook_passages.*, 1 - (embedding_value <=> ?) as similarity", queryVector)

	if len(filter) > 0 {
		filterJSON, err := json.Marshal(filter)
		if err != nil {
			return nil, fmt.Errorf("encode filter: %w", err)
		}
		tx = tx.Where("metadata @> ?::jsonb", string(filterJSON))
	}

	err = tx.Order("similarity DESC").Limit(k).Scan(&results).Error
	if err != nil {
		return nil, err
	}

	passages := make([]retrieval.Passage, len(results))
	for i, res := range results {
		passages[i] = retrieval.Passage{
			Text:       res.Document,
			SourceID:   res.Source,
			PageNumber: res.PageNumber,
			Score:      float32(res.Similarity),
		}
	}
	return passages, nil
}

func (r *PassageRepositoryImpl) Upsert(ctx context.Context, docs []retrieval.Document) error {
	if len(docs) == 0 {
		return nil
	}

	rows := make([]*model.TextbookPassage, 0, len(docs))
	for _, d := range docs {
		emb, err := r.embedder.Generate(ctx, d.Text, embedding.TaskRetrievalDocument)
		if err != nil {
			return fmt.Errorf("embed chunk %s: %w", d.ID, err)
		}

		meta, err := json.Marshal(d.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata for %s: %w", d.ID, err)
		}

		row := &model.TextbookPassage{
			Id:             d.ID,
			Document:       d.Text,
			Source:         d.Metadata[retrieval.MetaSource],
			Metadata:       datatypes.JSON(meta),
			EmbeddingValue: pgvector.NewVector(emb.Embedding.Values),
		}
		if n, err := strconv.Atoi(d.Metadata[retrieval.MetaPageNumber]); err == nil {
			row.PageNumber = &n
		}
		rows = append(rows, row)
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(rows, 100).Error
}

func (r *PassageRepositoryImpl) Count(ctx context.Context) (int, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.TextbookPassage{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}
