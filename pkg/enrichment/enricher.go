package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/wheslancardoso/backend-mindmesh/internal/entity"
	"github.com/wheslancardoso/backend-mindmesh/internal/pkg/logger"
	"github.com/wheslancardoso/backend-mindmesh/pkg/llm"
)

const (
	// Only the head of the document feeds the extraction prompt.
	maxPromptContentRunes = 6000

	extractionPromptTemplate = `Analyze the following document and extract metadata.

Document file name: %s

Document content:
%s

Respond with ONLY a JSON object, no other text, in this exact shape:
{
  "document_type": "one of: report, article, note, documentation, correspondence, data, other",
  "keywords": ["up to 8 keywords"],
  "topics": ["up to 5 topics"],
  "summary": "2-3 sentence summary",
  "language": "ISO 639-1 code of the main language",
  "confidence": 0.0
}
Set confidence to how certain you are about the extraction, between 0 and 1.`
)

// Enricher derives descriptive metadata for an ingested document. It never
// returns an error: when the model call or parsing fails, it falls back to
// rule-based metadata so ingestion is never blocked.
type Enricher struct {
	provider llm.Provider
	log      logger.ILogger
}

func NewEnricher(provider llm.Provider, log logger.ILogger) *Enricher {
	return &Enricher{
		provider: provider,
		log:      log,
	}
}

func (e *Enricher) Enrich(ctx context.Context, fileName, content string) *entity.DocumentMetadata {
	prompt := fmt.Sprintf(extractionPromptTemplate, fileName, truncateRunes(content, maxPromptContentRunes))

	raw, err := e.provider.Generate(ctx, prompt, llm.WithTemperature(0.2))
	if err != nil {
		e.log.Warn("enrichment", "metadata extraction call failed, using fallback", map[string]interface{}{
			"file_name": fileName,
			"error":     err.Error(),
		})
		return FallbackMetadata(fileName)
	}

	metadata, err := parseMetadata(raw)
	if err != nil {
		e.log.Warn("enrichment", "metadata response unparseable, using fallback", map[string]interface{}{
			"file_name": fileName,
			"error":     err.Error(),
		})
		return FallbackMetadata(fileName)
	}

	return metadata
}

func parseMetadata(raw string) (*entity.DocumentMetadata, error) {
	cleaned := CleanJSONResponse(raw)

	var metadata entity.DocumentMetadata
	if err := json.Unmarshal([]byte(cleaned), &metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}

	if metadata.Confidence < 0 {
		metadata.Confidence = 0
	}
	if metadata.Confidence > 1 {
		metadata.Confidence = 1
	}
	return &metadata, nil
}

// CleanJSONResponse strips markdown code fences that chat models tend to
// wrap JSON output in.
func CleanJSONResponse(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
	}
	return strings.TrimSpace(cleaned)
}

// FallbackMetadata classifies a document by its file extension alone.
func FallbackMetadata(fileName string) *entity.DocumentMetadata {
	documentType := "other"
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".md":
		documentType = "documentation"
	case ".csv", ".json":
		documentType = "data"
	case ".txt":
		documentType = "note"
	}

	return &entity.DocumentMetadata{
		DocumentType: documentType,
		Confidence:   0,
	}
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
