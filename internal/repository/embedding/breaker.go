package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"movieReco/pkg/config"
	"movieReco/pkg/logger"

	gobreaker "github.com/sony/gobreaker/v2"
)

// Embedder is the shape every client in this package satisfies.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	ModelName() string
}

// BreakerEmbedder fails fast while the remote embedding service keeps failing.
type BreakerEmbedder struct {
	next Embedder
	cb   *gobreaker.CircuitBreaker[[][]float32]
}

func NewBreakerEmbedder(next Embedder) *BreakerEmbedder {
	name := "embedding-" + next.ModelName()

	cb := gobreaker.NewCircuitBreaker[[][]float32](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &BreakerEmbedder{next: next, cb: cb}
}

func (b *BreakerEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := b.cb.Execute(func() ([][]float32, error) {
		return b.next.Embed(ctx, texts)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("embedding service unavailable: %w", err)
		}
		return nil, err
	}
	return vectors, nil
}

func (b *BreakerEmbedder) Dimension() int {
	return b.next.Dimension()
}

func (b *BreakerEmbedder) ModelName() string {
	return b.next.ModelName()
}

// New builds the embedder selected by cfg.Provider.
func New(cfg config.EmbeddingConfig) (Embedder, error) {
	switch cfg.Provider {
	case "hash":
		return NewHashEmbedder(cfg.Dimension), nil
	case "ollama":
		return NewBreakerEmbedder(NewOllamaEmbedder(cfg.Model, cfg.BaseURL, cfg.Dimension, cfg.Timeout)), nil
	case "openai":
		e, err := NewOpenAIEmbedder(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.Dimension, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		return NewBreakerEmbedder(e), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
