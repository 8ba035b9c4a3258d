package implementation

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wheslancardoso/backend-mindmesh/internal/entity"
	"github.com/wheslancardoso/backend-mindmesh/internal/mapper"
	"github.com/wheslancardoso/backend-mindmesh/internal/model"
	"github.com/wheslancardoso/backend-mindmesh/internal/repository/contract"
)

type DocumentChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentChunkMapper
}

func NewDocumentChunkRepository(db *gorm.DB) contract.DocumentChunkRepository {
	return &DocumentChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentChunkMapper(),
	}
}

func (r *DocumentChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	models := r.mapper.ToModels(chunks)
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}

	// Update IDs back to entities
	for i, m := range models {
		*chunks[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *DocumentChunkRepositoryImpl) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("document_id = ?", documentId).Delete(&model.DocumentChunk{}).Error
}

func (r *DocumentChunkRepositoryImpl) CountByDocumentId(ctx context.Context, documentId uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.DocumentChunk{}).
		Where("document_id = ?", documentId).
		Count(&count).Error
	return count, err
}

func (r *DocumentChunkRepositoryImpl) FindAllByDocumentId(ctx context.Context, documentId uuid.UUID) ([]*entity.DocumentChunk, error) {
	var models []*model.DocumentChunk
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentId).
		Order("chunk_index ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *DocumentChunkRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, userId uuid.UUID, metadataFilter map[string]interface{}, limit int) ([]*entity.RetrievedChunk, error) {
	if limit <= 0 {
		limit = 5
	}
	if limit > 20 {
		limit = 20
	}

	type row struct {
		Id         uuid.UUID
		DocumentId uuid.UUID
		ChunkIndex int
		Content    string
		TokenCount int
		Metadata   datatypes.JSON
	}
	var rows []row

	// Using pgvector cosine distance: embedding <=> vector
	// We MUST join with 'documents' to filter by user_id.
	// The secondary order on id keeps equal-distance results deterministic.
	query := r.db.WithContext(ctx).
		Table("document_chunks").
		Select("document_chunks.id, document_chunks.document_id, document_chunks.chunk_index, document_chunks.content, document_chunks.token_count, document_chunks.metadata").
		Joins("JOIN documents ON documents.id = document_chunks.document_id").
		Where("documents.user_id = ?", userId)

	if len(metadataFilter) > 0 {
		encoded, err := json.Marshal(metadataFilter)
		if err != nil {
			return nil, err
		}
		query = query.Where("document_chunks.metadata @> ?::jsonb", string(encoded))
	}

	// Order must go through Clauses: gorm's Order only accepts strings and
	// clause.OrderBy values, an expression passed to it is dropped.
	err := query.
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:                "document_chunks.embedding <=> ?, document_chunks.id",
			Vars:               []interface{}{pgvector.NewVector(embedding)},
			WithoutParentheses: true,
		}}).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	retrieved := make([]*entity.RetrievedChunk, len(rows))
	for i, res := range rows {
		var meta *entity.ChunkMetadata
		if len(res.Metadata) > 0 {
			var decoded entity.ChunkMetadata
			if err := json.Unmarshal(res.Metadata, &decoded); err == nil {
				meta = &decoded
			}
		}
		retrieved[i] = &entity.RetrievedChunk{
			Id:         res.Id,
			DocumentId: res.DocumentId,
			ChunkIndex: res.ChunkIndex,
			Content:    res.Content,
			TokenCount: res.TokenCount,
			Metadata:   meta,
		}
	}
	return retrieved, nil
}
