package embedding

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
)

const (
	maxInputRunes = 32000

	// Boundary cuts are only taken when they land close enough to the limit
	// that we do not throw away too much text.
	paragraphCutRatio  = 0.8
	sentenceCutRatio   = 0.8
	whitespaceCutRatio = 0.9
)

// ErrTimeout reports that the whole retry sequence ran out of time.
var ErrTimeout = errors.New("embedding timed out")

type ClientConfig struct {
	Timeout        time.Duration
	MaxAttempts    int
	BreakerEnabled bool
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:     30 * time.Second,
		MaxAttempts: 3,
	}
}

// Client wraps a Provider with input truncation, bounded retry and an
// optional circuit breaker. One Client instance is shared across requests.
type Client struct {
	provider Provider
	cfg      ClientConfig
	breaker  *gobreaker.CircuitBreaker
}

func NewClient(provider Provider, cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}

	var breaker *gobreaker.CircuitBreaker
	if cfg.BreakerEnabled {
		breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "embedding-provider",
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		})
	}

	return &Client{
		provider: provider,
		cfg:      cfg,
		breaker:  breaker,
	}
}

// Embed truncates oversized input, then calls the provider with exponential
// backoff. The timeout spans the whole retry sequence, not each attempt.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	// Blank input never reaches the provider.
	if strings.TrimSpace(text) == "" {
		return []float32{}, nil
	}

	text = Truncate(text, maxInputRunes)

	timeoutCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var vector []float32
	operation := func() error {
		var err error
		vector, err = c.callProvider(timeoutCtx, text)
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.Multiplier = 2

	retries := uint64(c.cfg.MaxAttempts - 1)
	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, retries), timeoutCtx))
	if err != nil {
		// Only the client's own deadline maps to ErrTimeout; a caller
		// cancellation is reported as such.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, err
	}
	return vector, nil
}

func (c *Client) Dimensions() int {
	return c.provider.Dimensions()
}

func (c *Client) callProvider(ctx context.Context, text string) ([]float32, error) {
	if c.breaker == nil {
		return c.provider.Embed(ctx, text)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.provider.Embed(ctx, text)
	})
	if err != nil {
		return nil, err
	}
	return result.([]float32), nil
}

// Truncate cuts text down to the rune limit, preferring a paragraph break,
// then a sentence end, then any whitespace near the limit before falling
// back to a hard cut.
func Truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	head := string(runes[:limit])

	// Boundary positions are byte offsets into head; the budget ratios are
	// in runes, so each candidate's retained length is counted in runes
	// before comparing.
	retained := func(byteIdx int) int {
		return utf8.RuneCountInString(head[:byteIdx])
	}

	if idx := strings.LastIndex(head, "\n\n"); idx >= 0 && retained(idx) > int(float64(limit)*paragraphCutRatio) {
		return head[:idx]
	}

	if idx := lastSentenceEnd(head); idx >= 0 && retained(idx+1) > int(float64(limit)*sentenceCutRatio) {
		return head[:idx+1]
	}

	if idx := strings.LastIndexAny(head, " \t\n"); idx >= 0 && retained(idx) > int(float64(limit)*whitespaceCutRatio) {
		return head[:idx]
	}

	return head
}

func lastSentenceEnd(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		switch s[i] {
		case '.', '!', '?':
			return i
		}
	}
	return -1
}
