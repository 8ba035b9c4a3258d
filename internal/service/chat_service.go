package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/wheslancardoso/backend-mindmesh/internal/apperror"
	"github.com/wheslancardoso/backend-mindmesh/internal/dto"
	"github.com/wheslancardoso/backend-mindmesh/internal/entity"
	"github.com/wheslancardoso/backend-mindmesh/internal/pkg/logger"
	"github.com/wheslancardoso/backend-mindmesh/internal/repository/specification"
	"github.com/wheslancardoso/backend-mindmesh/internal/repository/unitofwork"
	"github.com/wheslancardoso/backend-mindmesh/pkg/embedding"
	"github.com/wheslancardoso/backend-mindmesh/pkg/llm"
)

const (
	systemPrompt = `Você é um assistente especializado em análise de documentos usando RAG (Retrieval-Augmented Generation).

REGRAS IMPORTANTES:
1. Use SEMPRE tanto os METADADOS quanto os CONTEÚDOS dos chunks para responder.
2. Se a resposta estiver claramente presente nos metadados (document_type, language, keywords, topics, summary),
   utilize essas informações diretamente.
3. Cite as fontes quando possível (ex: "De acordo com o documento...").
4. Se perguntarem sobre o tipo, idioma, palavras-chave ou resumo do documento,
   responda usando os metadados disponíveis.
5. Se realmente não houver informação suficiente nos metadados nem nos chunks, responda:
   "Não encontrei informação suficiente nos documentos para responder essa pergunta."

Seja preciso, objetivo e útil.`

	noDocumentsAnswer = "Não encontrei documentos relevantes para responder sua pergunta. " +
		"Por favor, verifique se você já fez upload de documentos relacionados ao tema."

	placeholderTitle = "Nova conversa"

	maxSnippetLength = 300
	maxTitleLength   = 50
)

type IChatService interface {
	Chat(ctx context.Context, userId uuid.UUID, req *dto.SendChatRequest) (*dto.SendChatResponse, error)
	GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error)
	GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error)
	DeleteSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error
	SubmitFeedback(ctx context.Context, userId uuid.UUID, messageId uuid.UUID, score int) error
}

type chatService struct {
	uowFactory unitofwork.RepositoryFactory
	embedder   embedding.Provider
	generator  llm.Provider
	log        logger.ILogger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	embedder embedding.Provider,
	generator llm.Provider,
	log logger.ILogger,
) IChatService {
	return &chatService{
		uowFactory: uowFactory,
		embedder:   embedder,
		generator:  generator,
		log:        log,
	}
}

func (s *chatService) Chat(ctx context.Context, userId uuid.UUID, req *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, apperror.NewInvalidInput("message", "must not be empty")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.resolveSession(ctx, uow, userId, req.ChatSessionId)
	if err != nil {
		return nil, err
	}

	// The user message is persisted before any provider call, so the turn
	// stays in history even when vectorization or generation fails.
	userMessage := entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: session.Id,
		Role:          entity.ChatMessageRoleUser,
		Content:       req.Message,
	}
	if err := uow.ChatMessageRepository().Create(ctx, &userMessage); err != nil {
		return nil, err
	}

	queryVector, err := s.embedder.Embed(ctx, req.Message)
	if err != nil {
		return nil, mapEmbeddingError(err)
	}

	retrieved, err := uow.DocumentChunkRepository().SearchSimilar(ctx, queryVector, userId, req.MetadataFilter, req.EffectiveLimit())
	if err != nil {
		return nil, err
	}

	answer, usedChunkIds, err := s.synthesize(ctx, req.Message, retrieved)
	if err != nil {
		return nil, err
	}

	assistantMessage := entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: session.Id,
		Role:          entity.ChatMessageRoleAssistant,
		Content:       answer,
		UsedChunkIds:  usedChunkIds,
	}
	if err := uow.ChatMessageRepository().Create(ctx, &assistantMessage); err != nil {
		return nil, err
	}

	if session.Title == placeholderTitle {
		session.Title = generateTitle(req.Message)
		if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
			return nil, err
		}
	}

	citations := make([]dto.CitationDTO, len(retrieved))
	for i, chunk := range retrieved {
		citations[i] = dto.CitationDTO{
			ChunkId:    chunk.Id,
			DocumentId: chunk.DocumentId,
			ChunkIndex: chunk.ChunkIndex,
			TokenCount: chunk.TokenCount,
			Snippet:    truncateWithEllipsis(chunk.Content, maxSnippetLength),
		}
	}

	s.log.Info("chat", "chat turn completed", map[string]interface{}{
		"session_id":  session.Id,
		"chunks_used": len(retrieved),
	})

	return &dto.SendChatResponse{
		ChatSessionId:    session.Id,
		ChatSessionTitle: session.Title,
		MessageId:        assistantMessage.Id,
		Answer:           answer,
		Citations:        citations,
		CreatedAt:        assistantMessage.CreatedAt,
	}, nil
}

func (s *chatService) GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.GetAllSessionsResponse, len(sessions))
	for i, session := range sessions {
		responses[i] = &dto.GetAllSessionsResponse{
			Id:        session.Id,
			Title:     session.Title,
			CreatedAt: session.CreatedAt,
			UpdatedAt: session.UpdatedAt,
		}
	}
	return responses, nil
}

func (s *chatService) GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperror.NewNotFound("chat session")
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.GetChatHistoryResponse, len(messages))
	for i, message := range messages {
		responses[i] = &dto.GetChatHistoryResponse{
			Id:            message.Id,
			Role:          message.Role,
			Content:       message.Content,
			UsedChunkIds:  message.UsedChunkIds,
			FeedbackScore: message.FeedbackScore,
			CreatedAt:     message.CreatedAt,
		}
	}
	return responses, nil
}

func (s *chatService) DeleteSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if session == nil {
		return apperror.NewNotFound("chat session")
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, sessionId); err != nil {
		return err
	}
	if err := uow.ChatSessionRepository().Delete(ctx, sessionId); err != nil {
		return err
	}
	return uow.Commit()
}

func (s *chatService) SubmitFeedback(ctx context.Context, userId uuid.UUID, messageId uuid.UUID, score int) error {
	if score < -1 || score > 5 {
		return apperror.NewInvalidInput("score", "must be between -1 and 5")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	message, err := uow.ChatMessageRepository().FindOne(ctx,
		specification.ByID{ID: messageId},
	)
	if err != nil {
		return err
	}
	if message == nil {
		return apperror.NewNotFound("chat message")
	}

	// Ownership runs through the session.
	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: message.ChatSessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if session == nil {
		return apperror.NewNotFound("chat message")
	}

	if message.Role != entity.ChatMessageRoleAssistant {
		return apperror.NewInvalidInput("message_id", "feedback applies to assistant messages only")
	}

	message.FeedbackScore = &score
	return uow.ChatMessageRepository().Update(ctx, message)
}

// resolveSession reuses the caller's session when the id matches one they
// own, and creates a fresh one otherwise.
func (s *chatService) resolveSession(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, sessionId *uuid.UUID) (*entity.ChatSession, error) {
	if sessionId != nil {
		session, err := uow.ChatSessionRepository().FindOne(ctx,
			specification.ByID{ID: *sessionId},
			specification.UserOwnedBy{UserID: userId},
		)
		if err != nil {
			return nil, err
		}
		if session != nil {
			return session, nil
		}
	}

	session := entity.ChatSession{
		Id:     uuid.New(),
		UserId: userId,
		Title:  placeholderTitle,
	}
	if err := uow.ChatSessionRepository().Create(ctx, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// synthesize produces the answer text. With an empty retrieval set the
// model is never invoked and a fixed fallback answer is returned.
func (s *chatService) synthesize(ctx context.Context, question string, retrieved []*entity.RetrievedChunk) (string, []uuid.UUID, error) {
	if len(retrieved) == 0 {
		return noDocumentsAnswer, nil, nil
	}

	usedChunkIds := make([]uuid.UUID, len(retrieved))
	for i, chunk := range retrieved {
		usedChunkIds[i] = chunk.Id
	}

	prompt := buildPrompt(buildContext(retrieved), question)
	answer, err := s.generator.Generate(ctx, prompt, llm.WithTemperature(0.3))
	if err != nil {
		return "", nil, apperror.NewLanguageModelFailure(err)
	}
	return answer, usedChunkIds, nil
}

// buildContext renders each retrieved chunk with its metadata, in
// retrieval-rank order.
func buildContext(retrieved []*entity.RetrievedChunk) string {
	var b strings.Builder

	for i, chunk := range retrieved {
		fmt.Fprintf(&b, "=== Documento/Chunk %d ===\n", i+1)

		if meta := chunk.Metadata; meta != nil {
			b.WriteString("METADADOS:\n")
			if meta.DocumentType != "" {
				fmt.Fprintf(&b, "  Tipo: %s\n", meta.DocumentType)
			}
			if meta.Language != "" {
				fmt.Fprintf(&b, "  Idioma: %s\n", meta.Language)
			}
			if len(meta.Keywords) > 0 {
				fmt.Fprintf(&b, "  Palavras-chave: %s\n", strings.Join(meta.Keywords, ", "))
			}
			if len(meta.Topics) > 0 {
				fmt.Fprintf(&b, "  Tópicos: %s\n", strings.Join(meta.Topics, ", "))
			}
			if meta.Summary != "" {
				fmt.Fprintf(&b, "  Resumo: %s\n", meta.Summary)
			}
			b.WriteString("\n")
		}

		b.WriteString("CONTEÚDO:\n")
		b.WriteString(chunk.Content)
		b.WriteString("\n\n")
	}

	return strings.TrimSpace(b.String())
}

func buildPrompt(contextBlock, question string) string {
	return fmt.Sprintf("%s\n\nCONTEXTO:\n%s\n\nPERGUNTA DO USUÁRIO:\n%s\n\nRESPOSTA:\n", systemPrompt, contextBlock, question)
}

func generateTitle(message string) string {
	runes := []rune(message)
	if len(runes) <= maxTitleLength {
		return message
	}
	return string(runes[:maxTitleLength-3]) + "..."
}

// truncateWithEllipsis caps text at maxLength runes, marking the cut.
func truncateWithEllipsis(text string, maxLength int) string {
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}
	return string(runes[:maxLength-3]) + "..."
}
