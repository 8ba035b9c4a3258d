package entity

import (
	"time"

	"github.com/google/uuid"
)

type DocumentChunk struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey"`
	DocumentId uuid.UUID `gorm:"type:uuid;index"`
	ChunkIndex int
	Content    string
	TokenCount int
	Embedding  []float32
	Metadata   *ChunkMetadata
	CreatedAt  time.Time
}

// RetrievedChunk is a chunk as returned by similarity search. The embedding
// itself is never projected back out of the database.
type RetrievedChunk struct {
	Id         uuid.UUID
	DocumentId uuid.UUID
	ChunkIndex int
	Content    string
	TokenCount int
	Metadata   *ChunkMetadata
}
