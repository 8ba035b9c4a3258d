package entity

import (
	"time"

	"github.com/google/uuid"
)

type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "PENDING"
	DocumentStatusProcessing DocumentStatus = "PROCESSING"
	DocumentStatusCompleted  DocumentStatus = "COMPLETED"
	DocumentStatusFailed     DocumentStatus = "FAILED"
)

type Document struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId        uuid.UUID `gorm:"type:uuid;index"`
	FileName      string
	ContentType   string
	FileSize      int64
	FileHash      string
	ExtractedText string
	Status        DocumentStatus
	ErrorMessage  string
	ChunkCount    int
	Metadata      *DocumentMetadata
	CreatedAt     time.Time
	UpdatedAt     *time.Time
	ProcessedAt   *time.Time
}
