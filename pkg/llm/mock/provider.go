package mock

import (
	"context"
	"fmt"

	"github.com/wheslancardoso/backend-mindmesh/pkg/llm"
)

// MockProvider returns a canned completion derived from the last user
// message. It lets the full chat pipeline run without a live model.
type MockProvider struct{}

var _ llm.Provider = &MockProvider{}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (p *MockProvider) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	lastUser := ""
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == "user" {
			lastUser = history[i].Content
			break
		}
	}
	return fmt.Sprintf("[MOCK] This is a generated answer for: %s", firstLine(lastUser)), nil
}

func (p *MockProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
