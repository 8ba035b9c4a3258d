package bootstrap

import (
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/wheslancardoso/backend-mindmesh/internal/config"
	"github.com/wheslancardoso/backend-mindmesh/internal/controller"
	"github.com/wheslancardoso/backend-mindmesh/internal/pkg/logger"
	"github.com/wheslancardoso/backend-mindmesh/internal/pkg/serverutils"
	"github.com/wheslancardoso/backend-mindmesh/internal/repository/unitofwork"
	"github.com/wheslancardoso/backend-mindmesh/internal/service"
	"github.com/wheslancardoso/backend-mindmesh/pkg/chunker"
	"github.com/wheslancardoso/backend-mindmesh/pkg/embedding"
	"github.com/wheslancardoso/backend-mindmesh/pkg/enrichment"
	"github.com/wheslancardoso/backend-mindmesh/pkg/extractor"
	"github.com/wheslancardoso/backend-mindmesh/pkg/llm/factory"
)

type Container struct {
	Logger logger.ILogger

	DocumentController controller.IDocumentController
	ChatController     controller.IChatController
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// Embedding provider. Without an API key everything runs against the
	// deterministic local provider, which keeps dev setups offline.
	var embeddingProvider embedding.Provider
	if cfg.Ai.OpenAIKey != "" {
		embeddingProvider = embedding.NewOpenAIProvider(
			cfg.Ai.OpenAIBaseURL,
			cfg.Ai.OpenAIKey,
			cfg.Ai.EmbeddingModel,
			cfg.Ai.VectorDimensions,
		)
		log.Printf("[INFO] Using Embedding Provider: OPENAI (%s)", cfg.Ai.EmbeddingModel)
	} else {
		embeddingProvider = embedding.NewMockProvider(cfg.Ai.VectorDimensions)
		log.Printf("[INFO] Using Embedding Provider: MOCK (%d dims)", cfg.Ai.VectorDimensions)
	}

	embeddingClient := embedding.NewClient(embeddingProvider, embedding.ClientConfig{
		Timeout:        time.Duration(cfg.Ai.EmbeddingTimeoutSeconds) * time.Second,
		MaxAttempts:    cfg.Ai.EmbeddingMaxAttempts,
		BreakerEnabled: cfg.Ai.BreakerEnabled,
	})

	llmProvider := factory.NewProvider(cfg.Ai.OpenAIBaseURL, cfg.Ai.OpenAIKey, cfg.Ai.ChatModel)

	enricher := enrichment.NewEnricher(llmProvider, sysLogger)

	documentService := service.NewDocumentService(
		uowFactory,
		extractor.NewPlainTextExtractor(),
		chunker.New(chunker.DefaultConfig()),
		embeddingClient,
		enricher,
		sysLogger,
	)

	chatService := service.NewChatService(
		uowFactory,
		embeddingClient,
		llmProvider,
		sysLogger,
	)

	auth := serverutils.NewJwtMiddleware(cfg.Auth.JwtSecret)

	return &Container{
		Logger:             sysLogger,
		DocumentController: controller.NewDocumentController(documentService, auth),
		ChatController:     controller.NewChatController(chatService, auth),
	}
}
