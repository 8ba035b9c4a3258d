package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Document struct {
	Id            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId        uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:idx_documents_user_hash"`
	FileName      string         `gorm:"type:varchar(255);not null"`
	ContentType   string         `gorm:"type:varchar(100);not null"`
	FileSize      int64          `gorm:"not null"`
	FileHash      string         `gorm:"type:char(64);not null;uniqueIndex:idx_documents_user_hash"`
	ExtractedText string         `gorm:"type:text"`
	Status        string         `gorm:"type:varchar(20);not null;default:PENDING"`
	ErrorMessage  string         `gorm:"type:text"`
	ChunkCount    int            `gorm:"default:0"`
	Metadata      datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt     time.Time      `gorm:"autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime"`
	ProcessedAt   *time.Time
}

func (Document) TableName() string {
	return "documents"
}
