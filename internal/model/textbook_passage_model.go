package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// TextbookPassage is one indexed textbook chunk in the pgvector backend.
type TextbookPassage struct {
	Id             string          `gorm:"type:text;primaryKey"`
	Document       string          `gorm:"type:text"`
	Source         string          `gorm:"type:text;index"`
	PageNumber     *int            `gorm:"index"`
	Metadata       datatypes.JSON  `gorm:"type:jsonb"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector"`
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime"`
}

func (TextbookPassage) TableName() string {
	return "textbook_passages"
}
