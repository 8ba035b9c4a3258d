package contract

import (
	"context"

	"github.com/google/uuid"

	"github.com/wheslancardoso/backend-mindmesh/internal/entity"
)

type DocumentChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
	CountByDocumentId(ctx context.Context, documentId uuid.UUID) (int64, error)
	FindAllByDocumentId(ctx context.Context, documentId uuid.UUID) ([]*entity.DocumentChunk, error)

	// SearchSimilar returns the user's chunks closest to the query embedding
	// by cosine distance, optionally restricted by a jsonb containment
	// filter on chunk metadata. Embeddings are not projected back.
	SearchSimilar(ctx context.Context, embedding []float32, userId uuid.UUID, metadataFilter map[string]interface{}, limit int) ([]*entity.RetrievedChunk, error)
}
