package factory

import (
	"github.com/wheslancardoso/backend-mindmesh/pkg/llm"
	"github.com/wheslancardoso/backend-mindmesh/pkg/llm/mock"
	"github.com/wheslancardoso/backend-mindmesh/pkg/llm/openai"
)

// NewProvider selects the live backend when an API key is configured and
// the deterministic mock otherwise. The choice happens once at startup.
func NewProvider(baseURL, apiKey, modelName string) llm.Provider {
	if apiKey == "" {
		return mock.NewMockProvider()
	}
	return openai.NewOpenAIProvider(baseURL, apiKey, modelName)
}
