package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wheslancardoso/backend-mindmesh/internal/apperror"
	"github.com/wheslancardoso/backend-mindmesh/internal/dto"
	"github.com/wheslancardoso/backend-mindmesh/internal/entity"
	"github.com/wheslancardoso/backend-mindmesh/internal/pkg/logger"
	"github.com/wheslancardoso/backend-mindmesh/internal/repository/specification"
	"github.com/wheslancardoso/backend-mindmesh/internal/repository/unitofwork"
	"github.com/wheslancardoso/backend-mindmesh/pkg/chunker"
	"github.com/wheslancardoso/backend-mindmesh/pkg/embedding"
	"github.com/wheslancardoso/backend-mindmesh/pkg/extractor"
)

// defaultListLimit caps the document listing page when the caller does not
// ask for a size.
const defaultListLimit = 20

// MetadataEnricher derives document-level metadata. Implementations never
// fail; they fall back to rule-based values instead.
type MetadataEnricher interface {
	Enrich(ctx context.Context, fileName, content string) *entity.DocumentMetadata
}

type IDocumentService interface {
	Ingest(ctx context.Context, userId uuid.UUID, fileName, contentType string, data []byte) (*dto.UploadDocumentResponse, error)
	Reprocess(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.DocumentResponse, error)
	List(ctx context.Context, userId uuid.UUID, query *dto.ListDocumentsQuery) (*dto.ListDocumentsResponse, error)
	Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.DocumentResponse, error)
	ChunkCount(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ChunkCountResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
}

type documentService struct {
	uowFactory unitofwork.RepositoryFactory
	extractor  extractor.TextExtractor
	splitter   *chunker.Splitter
	embedder   embedding.Provider
	enricher   MetadataEnricher
	log        logger.ILogger
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	textExtractor extractor.TextExtractor,
	splitter *chunker.Splitter,
	embedder embedding.Provider,
	enricher MetadataEnricher,
	log logger.ILogger,
) IDocumentService {
	return &documentService{
		uowFactory: uowFactory,
		extractor:  textExtractor,
		splitter:   splitter,
		embedder:   embedder,
		enricher:   enricher,
		log:        log,
	}
}

func (s *documentService) Ingest(ctx context.Context, userId uuid.UUID, fileName, contentType string, data []byte) (*dto.UploadDocumentResponse, error) {
	if fileName == "" {
		return nil, apperror.NewInvalidInput("file_name", "must not be empty")
	}
	if len(data) == 0 {
		return nil, apperror.NewInvalidInput("file", "must not be empty")
	}

	hash := sha256.Sum256(data)
	fileHash := hex.EncodeToString(hash[:])

	uow := s.uowFactory.NewUnitOfWork(ctx)

	// Same bytes from the same user resolve to the existing document.
	existing, err := uow.DocumentRepository().FindOne(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.ByFileHash{FileHash: fileHash},
	)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.log.Info("document", "duplicate upload detected", map[string]interface{}{
			"user_id":     userId,
			"document_id": existing.Id,
			"file_hash":   fileHash,
		})
		return duplicateResponse(existing), nil
	}

	document := entity.Document{
		Id:          uuid.New(),
		UserId:      userId,
		FileName:    fileName,
		ContentType: contentType,
		FileSize:    int64(len(data)),
		FileHash:    fileHash,
		Status:      entity.DocumentStatusPending,
		CreatedAt:   time.Now(),
	}

	if err := uow.DocumentRepository().Create(ctx, &document); err != nil {
		// A concurrent identical upload can win the insert race; the unique
		// (user_id, file_hash) index is the backstop.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			winner, findErr := uow.DocumentRepository().FindOne(ctx,
				specification.UserOwnedBy{UserID: userId},
				specification.ByFileHash{FileHash: fileHash},
			)
			if findErr != nil {
				return nil, findErr
			}
			if winner != nil {
				return duplicateResponse(winner), nil
			}
		}
		return nil, err
	}

	if err := s.process(ctx, &document, data); err != nil {
		return nil, err
	}

	return &dto.UploadDocumentResponse{
		Id:         document.Id,
		FileName:   document.FileName,
		Status:     string(document.Status),
		ChunkCount: document.ChunkCount,
	}, nil
}

func (s *documentService) Reprocess(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.DocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, apperror.NewNotFound("document")
	}

	if document.ExtractedText == "" {
		return nil, apperror.NewExtractionFailed("document has no extracted text to reprocess")
	}

	if err := s.pipeline(ctx, document); err != nil {
		return nil, err
	}

	s.log.Info("document", "document reprocessed", map[string]interface{}{
		"document_id": document.Id,
		"chunk_count": document.ChunkCount,
	})
	return documentResponse(document), nil
}

func (s *documentService) List(ctx context.Context, userId uuid.UUID, query *dto.ListDocumentsQuery) (*dto.ListDocumentsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if query == nil {
		query = &dto.ListDocumentsQuery{}
	}
	limit := query.Limit
	if limit == 0 {
		limit = defaultListLimit
	}

	filters := []specification.Specification{
		specification.UserOwnedBy{UserID: userId},
	}
	if query.Status != "" {
		filters = append(filters, specification.ByStatus{Status: entity.DocumentStatus(query.Status)})
	}

	// Total reflects the filter, not the page.
	total, err := uow.DocumentRepository().Count(ctx, filters...)
	if err != nil {
		return nil, err
	}

	documents, err := uow.DocumentRepository().FindAll(ctx, append(filters,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: query.Offset},
	)...)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.DocumentResponse, len(documents))
	for i, document := range documents {
		responses[i] = *documentResponse(document)
	}
	return &dto.ListDocumentsResponse{
		Documents: responses,
		Total:     total,
	}, nil
}

func (s *documentService) Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.DocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, apperror.NewNotFound("document")
	}
	return documentResponse(document), nil
}

func (s *documentService) ChunkCount(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ChunkCountResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, apperror.NewNotFound("document")
	}

	count, err := uow.DocumentChunkRepository().CountByDocumentId(ctx, document.Id)
	if err != nil {
		return nil, err
	}
	return &dto.ChunkCountResponse{
		DocumentId: document.Id,
		ChunkCount: count,
	}, nil
}

func (s *documentService) Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if document == nil {
		return apperror.NewNotFound("document")
	}

	// Chunks and document go together or not at all.
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.DocumentChunkRepository().DeleteByDocumentId(ctx, document.Id); err != nil {
		return err
	}
	if err := uow.DocumentRepository().Delete(ctx, document.Id); err != nil {
		return err
	}
	return uow.Commit()
}

// process runs extraction + the shared pipeline for a fresh upload.
func (s *documentService) process(ctx context.Context, document *entity.Document, data []byte) error {
	result := s.extractor.Extract(data, document.ContentType)
	if !result.HasText() {
		s.markFailed(ctx, document, string(result.Reason))
		return apperror.NewExtractionFailed(extractionFailureMessage(result.Reason))
	}

	document.ExtractedText = result.Text
	return s.pipeline(ctx, document)
}

// pipeline chunks, embeds and persists a document's extracted text. It is
// shared by first-time ingestion and reprocessing.
func (s *documentService) pipeline(ctx context.Context, document *entity.Document) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	document.Status = entity.DocumentStatusProcessing
	document.ErrorMessage = ""
	if err := uow.DocumentRepository().Update(ctx, document); err != nil {
		return err
	}

	metadata := s.enricher.Enrich(ctx, document.FileName, document.ExtractedText)
	document.Metadata = metadata

	fragments := s.splitter.Split(document.ExtractedText)
	if len(fragments) == 0 {
		s.markFailed(ctx, document, "no content after normalization")
		return apperror.NewExtractionFailed("no usable text")
	}

	chunks := make([]*entity.DocumentChunk, len(fragments))
	for i, fragment := range fragments {
		vector, err := s.embedder.Embed(ctx, fragment.Content)
		if err != nil {
			s.markFailed(ctx, document, err.Error())
			return mapEmbeddingError(err)
		}
		chunks[i] = &entity.DocumentChunk{
			Id:         uuid.New(),
			DocumentId: document.Id,
			ChunkIndex: fragment.Index,
			Content:    fragment.Content,
			TokenCount: fragment.TokenCount,
			Embedding:  vector,
			Metadata:   chunkMetadata(document.FileName, fragment, len(fragments), metadata),
			CreatedAt:  time.Now(),
		}
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	// Reprocessing regenerates the whole chunk set.
	if err := uow.DocumentChunkRepository().DeleteByDocumentId(ctx, document.Id); err != nil {
		return err
	}
	if err := uow.DocumentChunkRepository().CreateBulk(ctx, chunks); err != nil {
		return err
	}

	now := time.Now()
	document.Status = entity.DocumentStatusCompleted
	document.ChunkCount = len(chunks)
	document.ProcessedAt = &now
	if err := uow.DocumentRepository().Update(ctx, document); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	s.log.Info("document", "document processed", map[string]interface{}{
		"document_id": document.Id,
		"chunk_count": document.ChunkCount,
	})
	return nil
}

// markFailed records a terminal failure on the document. The row is kept,
// without chunks, so the failed attempt stays auditable.
func (s *documentService) markFailed(ctx context.Context, document *entity.Document, message string) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	document.Status = entity.DocumentStatusFailed
	document.ErrorMessage = message
	if err := uow.DocumentRepository().Update(ctx, document); err != nil {
		s.log.Error("document", "failed to record failure state", map[string]interface{}{
			"document_id": document.Id,
			"error":       err.Error(),
		})
	}
}

func mapEmbeddingError(err error) error {
	if errors.Is(err, embedding.ErrTimeout) {
		return apperror.NewEmbeddingTimeout(err)
	}
	return apperror.NewEmbeddingProviderFailure(err)
}

func extractionFailureMessage(reason extractor.NoTextReason) string {
	switch reason {
	case extractor.ReasonEmptyFile:
		return "file contains no text"
	case extractor.ReasonUnsupportedType:
		return "unsupported content type"
	case extractor.ReasonInvalidEncoding:
		return "file is not valid UTF-8 text"
	default:
		return "no usable text"
	}
}

func chunkMetadata(fileName string, fragment chunker.Fragment, totalChunks int, metadata *entity.DocumentMetadata) *entity.ChunkMetadata {
	chunkMeta := &entity.ChunkMetadata{
		FileName:        fileName,
		ChunkIndex:      fragment.Index,
		TotalChunks:     totalChunks,
		ChunkTokenCount: fragment.TokenCount,
	}
	if metadata != nil {
		chunkMeta.DocumentType = metadata.DocumentType
		chunkMeta.Keywords = metadata.Keywords
		chunkMeta.Topics = metadata.Topics
		chunkMeta.Summary = metadata.Summary
		chunkMeta.Language = metadata.Language
		chunkMeta.Confidence = metadata.Confidence
	}
	return chunkMeta
}

func duplicateResponse(document *entity.Document) *dto.UploadDocumentResponse {
	return &dto.UploadDocumentResponse{
		Id:          document.Id,
		FileName:    document.FileName,
		Status:      string(document.Status),
		IsDuplicate: true,
		ChunkCount:  document.ChunkCount,
	}
}

func documentResponse(document *entity.Document) *dto.DocumentResponse {
	return &dto.DocumentResponse{
		Id:           document.Id,
		FileName:     document.FileName,
		ContentType:  document.ContentType,
		FileSize:     document.FileSize,
		Status:       string(document.Status),
		ErrorMessage: document.ErrorMessage,
		ChunkCount:   document.ChunkCount,
		Metadata:     document.Metadata,
		CreatedAt:    document.CreatedAt,
		ProcessedAt:  document.ProcessedAt,
	}
}
