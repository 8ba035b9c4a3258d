package mapper

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/wheslancardoso/backend-mindmesh/internal/entity"
	"github.com/wheslancardoso/backend-mindmesh/internal/model"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) ToEntity(d *model.Document) *entity.Document {
	if d == nil {
		return nil
	}

	var updatedAt *time.Time
	if !d.UpdatedAt.IsZero() {
		t := d.UpdatedAt
		updatedAt = &t
	}

	var metadata *entity.DocumentMetadata
	if len(d.Metadata) > 0 {
		var decoded entity.DocumentMetadata
		if err := json.Unmarshal(d.Metadata, &decoded); err == nil {
			metadata = &decoded
		}
	}

	return &entity.Document{
		Id:            d.Id,
		UserId:        d.UserId,
		FileName:      d.FileName,
		ContentType:   d.ContentType,
		FileSize:      d.FileSize,
		FileHash:      d.FileHash,
		ExtractedText: d.ExtractedText,
		Status:        entity.DocumentStatus(d.Status),
		ErrorMessage:  d.ErrorMessage,
		ChunkCount:    d.ChunkCount,
		Metadata:      metadata,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     updatedAt,
		ProcessedAt:   d.ProcessedAt,
	}
}

func (m *DocumentMapper) ToModel(d *entity.Document) *model.Document {
	if d == nil {
		return nil
	}

	var updatedAt time.Time
	if d.UpdatedAt != nil {
		updatedAt = *d.UpdatedAt
	}

	var metadata datatypes.JSON
	if d.Metadata != nil {
		if encoded, err := json.Marshal(d.Metadata); err == nil {
			metadata = datatypes.JSON(encoded)
		}
	}

	return &model.Document{
		Id:            d.Id,
		UserId:        d.UserId,
		FileName:      d.FileName,
		ContentType:   d.ContentType,
		FileSize:      d.FileSize,
		FileHash:      d.FileHash,
		ExtractedText: d.ExtractedText,
		Status:        string(d.Status),
		ErrorMessage:  d.ErrorMessage,
		ChunkCount:    d.ChunkCount,
		Metadata:      metadata,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     updatedAt,
		ProcessedAt:   d.ProcessedAt,
	}
}

func (m *DocumentMapper) ToEntities(documents []*model.Document) []*entity.Document {
	entities := make([]*entity.Document, len(documents))
	for i, d := range documents {
		entities[i] = m.ToEntity(d)
	}
	return entities
}
