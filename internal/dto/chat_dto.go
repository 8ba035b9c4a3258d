package dto

import (
	"time"

	"github.com/google/uuid"
)

const (
	defaultRetrievalLimit = 5
	maxRetrievalLimit     = 20
)

type SendChatRequest struct {
	ChatSessionId  *uuid.UUID             `json:"chat_session_id,omitempty"`
	Message        string                 `json:"message" validate:"required"`
	MetadataFilter map[string]interface{} `json:"metadata_filter,omitempty"`
	Limit          int                    `json:"limit,omitempty" validate:"omitempty,gte=1,lte=20"`
}

// EffectiveLimit clamps the requested retrieval size into [1, 20],
// defaulting when unset.
func (r *SendChatRequest) EffectiveLimit() int {
	if r.Limit <= 0 {
		return defaultRetrievalLimit
	}
	if r.Limit > maxRetrievalLimit {
		return maxRetrievalLimit
	}
	return r.Limit
}

type CitationDTO struct {
	ChunkId    uuid.UUID `json:"chunk_id"`
	DocumentId uuid.UUID `json:"document_id"`
	ChunkIndex int       `json:"chunk_index"`
	TokenCount int       `json:"token_count"`
	Snippet    string    `json:"snippet"`
}

type SendChatResponse struct {
	ChatSessionId    uuid.UUID     `json:"chat_session_id"`
	ChatSessionTitle string        `json:"title"`
	MessageId        uuid.UUID     `json:"message_id"`
	Answer           string        `json:"answer"`
	Citations        []CitationDTO `json:"citations"`
	CreatedAt        time.Time     `json:"created_at"`
}

type GetAllSessionsResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type GetChatHistoryResponse struct {
	Id            uuid.UUID   `json:"id"`
	Role          string      `json:"role"`
	Content       string      `json:"content"`
	UsedChunkIds  []uuid.UUID `json:"used_chunk_ids,omitempty"`
	FeedbackScore *int        `json:"feedback_score,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

type SubmitFeedbackRequest struct {
	Score int `json:"score" validate:"gte=-1,lte=5"`
}
