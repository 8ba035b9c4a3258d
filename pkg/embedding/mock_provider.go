package embedding

import (
	"context"
	"hash/fnv"
	"math/rand"
)

// MockProvider produces deterministic pseudo-random vectors derived from the
// input text. The same text always yields the same vector, which makes
// similarity search behave consistently without a live embedding backend.
type MockProvider struct {
	Dimension int
}

var _ Provider = &MockProvider{}

func NewMockProvider(dimensions int) *MockProvider {
	return &MockProvider{Dimension: dimensions}
}

func (p *MockProvider) Embed(_ context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	vector := make([]float32, p.Dimension)
	for i := range vector {
		vector[i] = rng.Float32()*2 - 1
	}
	return vector, nil
}

func (p *MockProvider) Dimensions() int {
	return p.Dimension
}
