package embedding

import "context"

// Provider defines the contract for any embedding backend
type Provider interface {
	// Embed converts one text into a dense vector
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions reports the vector size this provider produces
	Dimensions() int
}
