package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/wheslancardoso/backend-mindmesh/internal/entity"
)

type UploadDocumentResponse struct {
	Id          uuid.UUID `json:"id"`
	FileName    string    `json:"file_name"`
	Status      string    `json:"status"`
	IsDuplicate bool      `json:"is_duplicate"`
	ChunkCount  int       `json:"chunk_count"`
}

type DocumentResponse struct {
	Id           uuid.UUID                `json:"id"`
	FileName     string                   `json:"file_name"`
	ContentType  string                   `json:"content_type"`
	FileSize     int64                    `json:"file_size"`
	Status       string                   `json:"status"`
	ErrorMessage string                   `json:"error_message,omitempty"`
	ChunkCount   int                      `json:"chunk_count"`
	Metadata     *entity.DocumentMetadata `json:"metadata,omitempty"`
	CreatedAt    time.Time                `json:"created_at"`
	ProcessedAt  *time.Time               `json:"processed_at,omitempty"`
}

type ListDocumentsQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=PENDING PROCESSING COMPLETED FAILED"`
	Limit  int    `query:"limit" validate:"omitempty,gte=1,lte=100"`
	Offset int    `query:"offset" validate:"omitempty,gte=0"`
}

type ChunkCountResponse struct {
	DocumentId uuid.UUID `json:"document_id"`
	ChunkCount int64     `json:"chunk_count"`
}

type ListDocumentsResponse struct {
	Documents []DocumentResponse `json:"documents"`
	Total     int64              `json:"total"`
}
