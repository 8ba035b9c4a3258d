package mapper

import (
	"encoding/json"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"

	"github.com/wheslancardoso/backend-mindmesh/internal/entity"
	"github.com/wheslancardoso/backend-mindmesh/internal/model"
)

type DocumentChunkMapper struct{}

func NewDocumentChunkMapper() *DocumentChunkMapper {
	return &DocumentChunkMapper{}
}

func (m *DocumentChunkMapper) ToEntity(c *model.DocumentChunk) *entity.DocumentChunk {
	if c == nil {
		return nil
	}

	return &entity.DocumentChunk{
		Id:         c.Id,
		DocumentId: c.DocumentId,
		ChunkIndex: c.ChunkIndex,
		Content:    c.Content,
		TokenCount: c.TokenCount,
		Embedding:  c.Embedding.Slice(),
		Metadata:   decodeChunkMetadata(c.Metadata),
		CreatedAt:  c.CreatedAt,
	}
}

func (m *DocumentChunkMapper) ToModel(c *entity.DocumentChunk) *model.DocumentChunk {
	if c == nil {
		return nil
	}

	var metadata datatypes.JSON
	if c.Metadata != nil {
		if encoded, err := json.Marshal(c.Metadata); err == nil {
			metadata = datatypes.JSON(encoded)
		}
	}

	return &model.DocumentChunk{
		Id:         c.Id,
		DocumentId: c.DocumentId,
		ChunkIndex: c.ChunkIndex,
		Content:    c.Content,
		TokenCount: c.TokenCount,
		Embedding:  pgvector.NewVector(c.Embedding),
		Metadata:   metadata,
		CreatedAt:  c.CreatedAt,
	}
}

func (m *DocumentChunkMapper) ToModels(chunks []*entity.DocumentChunk) []*model.DocumentChunk {
	models := make([]*model.DocumentChunk, len(chunks))
	for i, c := range chunks {
		models[i] = m.ToModel(c)
	}
	return models
}

func (m *DocumentChunkMapper) ToEntities(chunks []*model.DocumentChunk) []*entity.DocumentChunk {
	entities := make([]*entity.DocumentChunk, len(chunks))
	for i, c := range chunks {
		entities[i] = m.ToEntity(c)
	}
	return entities
}

func decodeChunkMetadata(raw datatypes.JSON) *entity.ChunkMetadata {
	if len(raw) == 0 {
		return nil
	}
	var decoded entity.ChunkMetadata
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil
	}
	return &decoded
}
