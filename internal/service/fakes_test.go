package service

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wheslancardoso/backend-mindmesh/internal/entity"
	"github.com/wheslancardoso/backend-mindmesh/internal/repository/contract"
	"github.com/wheslancardoso/backend-mindmesh/internal/repository/specification"
	"github.com/wheslancardoso/backend-mindmesh/internal/repository/unitofwork"
)

// In-memory repository fakes. They interpret the small set of
// specifications the services actually use.

type memoryStore struct {
	mu        sync.Mutex
	documents map[uuid.UUID]*entity.Document
	chunks    map[uuid.UUID]*entity.DocumentChunk
	sessions  map[uuid.UUID]*entity.ChatSession
	messages  map[uuid.UUID]*entity.ChatMessage

	seq int64 // drives insertion-order timestamps
}

// orderClock turns an insertion sequence number into a strictly
// increasing timestamp.
func orderClock(seq int64) time.Time {
	return time.Unix(0, seq*int64(time.Millisecond))
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		documents: make(map[uuid.UUID]*entity.Document),
		chunks:    make(map[uuid.UUID]*entity.DocumentChunk),
		sessions:  make(map[uuid.UUID]*entity.ChatSession),
		messages:  make(map[uuid.UUID]*entity.ChatMessage),
	}
}

type specFilter struct {
	id            *uuid.UUID
	userId        *uuid.UUID
	fileHash      *string
	status        *entity.DocumentStatus
	chatSessionId *uuid.UUID
	orderDesc     bool
	limit         *int
	offset        int
}

func parseSpecs(specs []specification.Specification) specFilter {
	var f specFilter
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			id := s.ID
			f.id = &id
		case specification.UserOwnedBy:
			userId := s.UserID
			f.userId = &userId
		case specification.ByFileHash:
			hash := s.FileHash
			f.fileHash = &hash
		case specification.ByChatSessionID:
			sessionId := s.ChatSessionID
			f.chatSessionId = &sessionId
		case specification.ByStatus:
			status := s.Status
			f.status = &status
		case specification.OrderBy:
			f.orderDesc = s.Desc
		case specification.Pagination:
			limit := s.Limit
			f.limit = &limit
			f.offset = s.Offset
		}
	}
	return f
}

// --- documents ---

type fakeDocumentRepo struct{ store *memoryStore }

func (r *fakeDocumentRepo) Create(_ context.Context, document *entity.Document) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	copied := *document
	r.store.documents[document.Id] = &copied
	return nil
}

func (r *fakeDocumentRepo) Update(_ context.Context, document *entity.Document) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	copied := *document
	r.store.documents[document.Id] = &copied
	return nil
}

func (r *fakeDocumentRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.documents, id)
	return nil
}

func (r *fakeDocumentRepo) matches(d *entity.Document, f specFilter) bool {
	if f.id != nil && d.Id != *f.id {
		return false
	}
	if f.userId != nil && d.UserId != *f.userId {
		return false
	}
	if f.fileHash != nil && d.FileHash != *f.fileHash {
		return false
	}
	if f.status != nil && d.Status != *f.status {
		return false
	}
	return true
}

func (r *fakeDocumentRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.Document, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	f := parseSpecs(specs)
	for _, d := range r.store.documents {
		if r.matches(d, f) {
			copied := *d
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeDocumentRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	f := parseSpecs(specs)
	var out []*entity.Document
	for _, d := range r.store.documents {
		if r.matches(d, f) {
			copied := *d
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if f.orderDesc {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if f.offset > 0 {
		if f.offset >= len(out) {
			out = nil
		} else {
			out = out[f.offset:]
		}
	}
	if f.limit != nil && len(out) > *f.limit {
		out = out[:*f.limit]
	}
	return out, nil
}

func (r *fakeDocumentRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.FindAll(ctx, specs...)
	return int64(len(all)), err
}

// --- chunks ---

type fakeChunkRepo struct{ store *memoryStore }

func (r *fakeChunkRepo) CreateBulk(_ context.Context, chunks []*entity.DocumentChunk) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, c := range chunks {
		copied := *c
		r.store.chunks[c.Id] = &copied
	}
	return nil
}

func (r *fakeChunkRepo) DeleteByDocumentId(_ context.Context, documentId uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, c := range r.store.chunks {
		if c.DocumentId == documentId {
			delete(r.store.chunks, id)
		}
	}
	return nil
}

func (r *fakeChunkRepo) CountByDocumentId(_ context.Context, documentId uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var count int64
	for _, c := range r.store.chunks {
		if c.DocumentId == documentId {
			count++
		}
	}
	return count, nil
}

func (r *fakeChunkRepo) FindAllByDocumentId(_ context.Context, documentId uuid.UUID) ([]*entity.DocumentChunk, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.DocumentChunk
	for _, c := range r.store.chunks {
		if c.DocumentId == documentId {
			copied := *c
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChunkIndex < out[j].ChunkIndex })
	return out, nil
}

func (r *fakeChunkRepo) SearchSimilar(_ context.Context, embedding []float32, userId uuid.UUID, metadataFilter map[string]interface{}, limit int) ([]*entity.RetrievedChunk, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if limit <= 0 {
		limit = 5
	}

	type scored struct {
		chunk    *entity.DocumentChunk
		distance float64
	}
	var candidates []scored
	for _, c := range r.store.chunks {
		doc, ok := r.store.documents[c.DocumentId]
		if !ok || doc.UserId != userId {
			continue
		}
		if !metadataMatches(c.Metadata, metadataFilter) {
			continue
		}
		candidates = append(candidates, scored{chunk: c, distance: cosineDistance(embedding, c.Embedding)})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].chunk.Id.String() < candidates[j].chunk.Id.String()
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]*entity.RetrievedChunk, len(candidates))
	for i, cand := range candidates {
		out[i] = &entity.RetrievedChunk{
			Id:         cand.chunk.Id,
			DocumentId: cand.chunk.DocumentId,
			ChunkIndex: cand.chunk.ChunkIndex,
			Content:    cand.chunk.Content,
			TokenCount: cand.chunk.TokenCount,
			Metadata:   cand.chunk.Metadata,
		}
	}
	return out, nil
}

func metadataMatches(meta *entity.ChunkMetadata, filter map[string]interface{}) bool {
	if len(filter) == 0 {
		return true
	}
	if meta == nil {
		return false
	}
	for key, value := range filter {
		want, _ := value.(string)
		switch key {
		case "document_type":
			if meta.DocumentType != want {
				return false
			}
		case "language":
			if meta.Language != want {
				return false
			}
		case "file_name":
			if meta.FileName != want {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 2
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

// --- sessions ---

type fakeSessionRepo struct{ store *memoryStore }

func (r *fakeSessionRepo) Create(_ context.Context, session *entity.ChatSession) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.seq++
	session.CreatedAt = orderClock(r.store.seq)
	copied := *session
	r.store.sessions[session.Id] = &copied
	return nil
}

func (r *fakeSessionRepo) Update(_ context.Context, session *entity.ChatSession) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	copied := *session
	r.store.sessions[session.Id] = &copied
	return nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.sessions, id)
	return nil
}

func (r *fakeSessionRepo) matches(s *entity.ChatSession, f specFilter) bool {
	if f.id != nil && s.Id != *f.id {
		return false
	}
	if f.userId != nil && s.UserId != *f.userId {
		return false
	}
	return true
}

func (r *fakeSessionRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	f := parseSpecs(specs)
	for _, s := range r.store.sessions {
		if r.matches(s, f) {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeSessionRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	f := parseSpecs(specs)
	var out []*entity.ChatSession
	for _, s := range r.store.sessions {
		if r.matches(s, f) {
			copied := *s
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if f.orderDesc {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *fakeSessionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.FindAll(ctx, specs...)
	return int64(len(all)), err
}

// --- messages ---

type fakeMessageRepo struct{ store *memoryStore }

func (r *fakeMessageRepo) Create(_ context.Context, message *entity.ChatMessage) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.seq++
	message.CreatedAt = orderClock(r.store.seq)
	copied := *message
	r.store.messages[message.Id] = &copied
	return nil
}

func (r *fakeMessageRepo) Update(_ context.Context, message *entity.ChatMessage) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	copied := *message
	r.store.messages[message.Id] = &copied
	return nil
}

func (r *fakeMessageRepo) DeleteByChatSessionId(_ context.Context, sessionId uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, m := range r.store.messages {
		if m.ChatSessionId == sessionId {
			delete(r.store.messages, id)
		}
	}
	return nil
}

func (r *fakeMessageRepo) matches(m *entity.ChatMessage, f specFilter) bool {
	if f.id != nil && m.Id != *f.id {
		return false
	}
	if f.chatSessionId != nil && m.ChatSessionId != *f.chatSessionId {
		return false
	}
	return true
}

func (r *fakeMessageRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.ChatMessage, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	f := parseSpecs(specs)
	for _, m := range r.store.messages {
		if r.matches(m, f) {
			copied := *m
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeMessageRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	f := parseSpecs(specs)
	var out []*entity.ChatMessage
	for _, m := range r.store.messages {
		if r.matches(m, f) {
			copied := *m
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if f.orderDesc {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *fakeMessageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.FindAll(ctx, specs...)
	return int64(len(all)), err
}

// --- unit of work ---

type fakeUnitOfWork struct {
	store *memoryStore
}

func (u *fakeUnitOfWork) Begin(_ context.Context) error { return nil }
func (u *fakeUnitOfWork) Commit() error                 { return nil }
func (u *fakeUnitOfWork) Rollback() error               { return nil }

func (u *fakeUnitOfWork) DocumentRepository() contract.DocumentRepository {
	return &fakeDocumentRepo{store: u.store}
}

func (u *fakeUnitOfWork) DocumentChunkRepository() contract.DocumentChunkRepository {
	return &fakeChunkRepo{store: u.store}
}

func (u *fakeUnitOfWork) ChatSessionRepository() contract.ChatSessionRepository {
	return &fakeSessionRepo{store: u.store}
}

func (u *fakeUnitOfWork) ChatMessageRepository() contract.ChatMessageRepository {
	return &fakeMessageRepo{store: u.store}
}

type fakeFactory struct {
	store *memoryStore
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{store: newMemoryStore()}
}

func (f *fakeFactory) NewUnitOfWork(_ context.Context) unitofwork.UnitOfWork {
	return &fakeUnitOfWork{store: f.store}
}
