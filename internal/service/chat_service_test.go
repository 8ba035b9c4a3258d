package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wheslancardoso/backend-mindmesh/internal/apperror"
	"github.com/wheslancardoso/backend-mindmesh/internal/dto"
	"github.com/wheslancardoso/backend-mindmesh/internal/entity"
	"github.com/wheslancardoso/backend-mindmesh/internal/pkg/logger"
	"github.com/wheslancardoso/backend-mindmesh/pkg/llm"
)

// scriptedEmbedder returns a fixed vector so retrieval ranking in the
// tests is fully determined by the seeded chunk embeddings.
type scriptedEmbedder struct {
	vector []float32
}

func (e *scriptedEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return e.vector, nil
}

func (e *scriptedEmbedder) Dimensions() int { return len(e.vector) }

type countingGenerator struct {
	calls   int
	prompts []string
	answer  string
	err     error
}

func (g *countingGenerator) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return g.Generate(ctx, history[len(history)-1].Content, options...)
}

func (g *countingGenerator) Generate(_ context.Context, prompt string, _ ...llm.Option) (string, error) {
	g.calls++
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

type chatFixture struct {
	service   IChatService
	factory   *fakeFactory
	generator *countingGenerator
	userId    uuid.UUID
}

func newChatFixture() *chatFixture {
	factory := newFakeFactory()
	generator := &countingGenerator{answer: "Conforme o documento, a resposta é sim."}
	svc := NewChatService(
		factory,
		&scriptedEmbedder{vector: []float32{1, 0, 0}},
		generator,
		logger.NewNop(),
	)
	return &chatFixture{
		service:   svc,
		factory:   factory,
		generator: generator,
		userId:    uuid.New(),
	}
}

// seedChunk inserts a document plus one chunk directly into the store.
func (fx *chatFixture) seedChunk(t *testing.T, owner uuid.UUID, content string, vector []float32, meta *entity.ChunkMetadata) *entity.DocumentChunk {
	t.Helper()
	uow := fx.factory.NewUnitOfWork(context.Background())

	doc := &entity.Document{
		Id:       uuid.New(),
		UserId:   owner,
		FileName: "seed.txt",
		FileHash: uuid.NewString(),
		Status:   entity.DocumentStatusCompleted,
	}
	require.NoError(t, uow.DocumentRepository().Create(context.Background(), doc))

	chunk := &entity.DocumentChunk{
		Id:         uuid.New(),
		DocumentId: doc.Id,
		ChunkIndex: 0,
		Content:    content,
		TokenCount: 10,
		Embedding:  vector,
		Metadata:   meta,
	}
	require.NoError(t, uow.DocumentChunkRepository().CreateBulk(context.Background(), []*entity.DocumentChunk{chunk}))
	return chunk
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	fx := newChatFixture()

	_, err := fx.service.Chat(context.Background(), fx.userId, &dto.SendChatRequest{Message: "   "})
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeInvalidInput, appErr.Code)
	assert.Zero(t, fx.generator.calls)
}

func TestChatWithoutDocumentsSkipsGenerator(t *testing.T) {
	fx := newChatFixture()

	res, err := fx.service.Chat(context.Background(), fx.userId, &dto.SendChatRequest{Message: "Qual o resumo?"})
	require.NoError(t, err)

	assert.Equal(t, noDocumentsAnswer, res.Answer)
	assert.Empty(t, res.Citations)
	assert.Zero(t, fx.generator.calls, "generator must not run without retrieved chunks")

	history, err := fx.service.GetChatHistory(context.Background(), fx.userId, res.ChatSessionId)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, entity.ChatMessageRoleUser, history[0].Role)
	assert.Equal(t, entity.ChatMessageRoleAssistant, history[1].Role)
	assert.Empty(t, history[1].UsedChunkIds)
}

func TestChatAnswersFromRetrievedChunks(t *testing.T) {
	fx := newChatFixture()
	near := fx.seedChunk(t, fx.userId, "Relatório anual de vendas.", []float32{1, 0, 0}, &entity.ChunkMetadata{
		FileName:     "vendas.txt",
		DocumentType: "report",
		Language:     "pt",
		Keywords:     []string{"vendas", "2025"},
	})
	far := fx.seedChunk(t, fx.userId, "Receita de bolo de cenoura.", []float32{0, 1, 0}, nil)

	res, err := fx.service.Chat(context.Background(), fx.userId, &dto.SendChatRequest{Message: "Como foram as vendas?"})
	require.NoError(t, err)

	assert.Equal(t, fx.generator.answer, res.Answer)
	assert.Equal(t, 1, fx.generator.calls)
	require.Len(t, res.Citations, 2)
	assert.Equal(t, near.Id, res.Citations[0].ChunkId, "closest chunk ranks first")
	assert.Equal(t, far.Id, res.Citations[1].ChunkId)
	assert.Equal(t, near.TokenCount, res.Citations[0].TokenCount)

	prompt := fx.generator.prompts[0]
	assert.Contains(t, prompt, "Relatório anual de vendas.")
	assert.Contains(t, prompt, "Tipo: report")
	assert.Contains(t, prompt, "Palavras-chave: vendas, 2025")
	assert.Contains(t, prompt, "Como foram as vendas?")

	history, err := fx.service.GetChatHistory(context.Background(), fx.userId, res.ChatSessionId)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, []uuid.UUID{near.Id, far.Id}, history[1].UsedChunkIds)
}

func TestChatDoesNotSeeOtherUsersChunks(t *testing.T) {
	fx := newChatFixture()
	fx.seedChunk(t, uuid.New(), "Documento de outra pessoa.", []float32{1, 0, 0}, nil)

	res, err := fx.service.Chat(context.Background(), fx.userId, &dto.SendChatRequest{Message: "O que diz o documento?"})
	require.NoError(t, err)
	assert.Equal(t, noDocumentsAnswer, res.Answer)
	assert.Zero(t, fx.generator.calls)
}

func TestChatMetadataFilterNarrowsRetrieval(t *testing.T) {
	fx := newChatFixture()
	report := fx.seedChunk(t, fx.userId, "Relatório.", []float32{0, 1, 0}, &entity.ChunkMetadata{DocumentType: "report"})
	fx.seedChunk(t, fx.userId, "Anotação.", []float32{1, 0, 0}, &entity.ChunkMetadata{DocumentType: "note"})

	res, err := fx.service.Chat(context.Background(), fx.userId, &dto.SendChatRequest{
		Message:        "Resumo do relatório?",
		MetadataFilter: map[string]interface{}{"document_type": "report"},
	})
	require.NoError(t, err)
	require.Len(t, res.Citations, 1)
	assert.Equal(t, report.Id, res.Citations[0].ChunkId)
}

func TestChatCitationSnippetsAreCapped(t *testing.T) {
	fx := newChatFixture()
	long := strings.Repeat("a", 500)
	fx.seedChunk(t, fx.userId, long, []float32{1, 0, 0}, nil)

	res, err := fx.service.Chat(context.Background(), fx.userId, &dto.SendChatRequest{Message: "pergunta"})
	require.NoError(t, err)
	require.Len(t, res.Citations, 1)

	snippet := res.Citations[0].Snippet
	assert.Len(t, []rune(snippet), maxSnippetLength)
	assert.True(t, strings.HasSuffix(snippet, "..."))
}

func TestChatCreatesSessionTitledFromFirstMessage(t *testing.T) {
	fx := newChatFixture()

	res, err := fx.service.Chat(context.Background(), fx.userId, &dto.SendChatRequest{Message: "Qual o prazo do projeto?"})
	require.NoError(t, err)
	assert.Equal(t, "Qual o prazo do projeto?", res.ChatSessionTitle)

	sessions, err := fx.service.GetAllSessions(context.Background(), fx.userId)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "Qual o prazo do projeto?", sessions[0].Title)
}

func TestChatTruncatesLongTitle(t *testing.T) {
	fx := newChatFixture()
	message := strings.Repeat("x", 80)

	res, err := fx.service.Chat(context.Background(), fx.userId, &dto.SendChatRequest{Message: message})
	require.NoError(t, err)
	assert.Len(t, []rune(res.ChatSessionTitle), maxTitleLength)
	assert.Equal(t, strings.Repeat("x", maxTitleLength-3)+"...", res.ChatSessionTitle)
}

func TestChatReusesOwnedSessionAndKeepsTitle(t *testing.T) {
	fx := newChatFixture()

	first, err := fx.service.Chat(context.Background(), fx.userId, &dto.SendChatRequest{Message: "Primeira pergunta"})
	require.NoError(t, err)

	second, err := fx.service.Chat(context.Background(), fx.userId, &dto.SendChatRequest{
		ChatSessionId: &first.ChatSessionId,
		Message:       "Segunda pergunta",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ChatSessionId, second.ChatSessionId)
	assert.Equal(t, "Primeira pergunta", second.ChatSessionTitle)

	history, err := fx.service.GetChatHistory(context.Background(), fx.userId, first.ChatSessionId)
	require.NoError(t, err)
	assert.Len(t, history, 4)
}

func TestChatIgnoresForeignSessionId(t *testing.T) {
	fx := newChatFixture()

	other, err := fx.service.Chat(context.Background(), uuid.New(), &dto.SendChatRequest{Message: "alheia"})
	require.NoError(t, err)

	res, err := fx.service.Chat(context.Background(), fx.userId, &dto.SendChatRequest{
		ChatSessionId: &other.ChatSessionId,
		Message:       "minha pergunta",
	})
	require.NoError(t, err)
	assert.NotEqual(t, other.ChatSessionId, res.ChatSessionId, "foreign session id must not be reused")
}

func TestChatGeneratorFailureKeepsUserMessage(t *testing.T) {
	fx := newChatFixture()
	fx.generator.err = errors.New("model unavailable")
	fx.seedChunk(t, fx.userId, "conteúdo", []float32{1, 0, 0}, nil)

	_, err := fx.service.Chat(context.Background(), fx.userId, &dto.SendChatRequest{Message: "pergunta"})
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeLanguageModelFailure, appErr.Code)

	sessions, err := fx.service.GetAllSessions(context.Background(), fx.userId)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	history, err := fx.service.GetChatHistory(context.Background(), fx.userId, sessions[0].Id)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, entity.ChatMessageRoleUser, history[0].Role)
}

func TestGetChatHistoryForeignSession(t *testing.T) {
	fx := newChatFixture()

	res, err := fx.service.Chat(context.Background(), fx.userId, &dto.SendChatRequest{Message: "oi"})
	require.NoError(t, err)

	_, err = fx.service.GetChatHistory(context.Background(), uuid.New(), res.ChatSessionId)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeNotFound, appErr.Code)
}

func TestDeleteSessionRemovesMessages(t *testing.T) {
	fx := newChatFixture()

	res, err := fx.service.Chat(context.Background(), fx.userId, &dto.SendChatRequest{Message: "oi"})
	require.NoError(t, err)

	require.NoError(t, fx.service.DeleteSession(context.Background(), fx.userId, res.ChatSessionId))

	sessions, err := fx.service.GetAllSessions(context.Background(), fx.userId)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	_, err = fx.service.GetChatHistory(context.Background(), fx.userId, res.ChatSessionId)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeNotFound, appErr.Code)
}

func TestDeleteSessionForeignOwner(t *testing.T) {
	fx := newChatFixture()

	res, err := fx.service.Chat(context.Background(), fx.userId, &dto.SendChatRequest{Message: "oi"})
	require.NoError(t, err)

	err = fx.service.DeleteSession(context.Background(), uuid.New(), res.ChatSessionId)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeNotFound, appErr.Code)
}

func TestSubmitFeedback(t *testing.T) {
	fx := newChatFixture()

	res, err := fx.service.Chat(context.Background(), fx.userId, &dto.SendChatRequest{Message: "oi"})
	require.NoError(t, err)

	require.NoError(t, fx.service.SubmitFeedback(context.Background(), fx.userId, res.MessageId, 5))

	history, err := fx.service.GetChatHistory(context.Background(), fx.userId, res.ChatSessionId)
	require.NoError(t, err)
	require.NotNil(t, history[1].FeedbackScore)
	assert.Equal(t, 5, *history[1].FeedbackScore)
}

func TestSubmitFeedbackValidation(t *testing.T) {
	fx := newChatFixture()

	res, err := fx.service.Chat(context.Background(), fx.userId, &dto.SendChatRequest{Message: "oi"})
	require.NoError(t, err)

	var appErr *apperror.AppError

	err = fx.service.SubmitFeedback(context.Background(), fx.userId, res.MessageId, 6)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeInvalidInput, appErr.Code)

	// the user's own message does not take feedback
	history, err := fx.service.GetChatHistory(context.Background(), fx.userId, res.ChatSessionId)
	require.NoError(t, err)
	err = fx.service.SubmitFeedback(context.Background(), fx.userId, history[0].Id, 1)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeInvalidInput, appErr.Code)

	err = fx.service.SubmitFeedback(context.Background(), uuid.New(), res.MessageId, 1)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeNotFound, appErr.Code)
}
