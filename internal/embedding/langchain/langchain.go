// Package langchain adapts langchaingo embedding clients to the domain Embedder contract.
package langchain

import (
	"context"
	"fmt"
	"sync"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"ragchat/internal/domain"
)

// Config selects the langchaingo backend used for embeddings.
type Config struct {
	Provider  string // "ollama" or "openai"
	Model     string
	BaseURL   string
	APIKey    string
	BatchSize int
	// Dimension is the expected vector size; 0 learns it from the first response.
	Dimension int
}

// Embedder wraps a langchaingo embeddings.Embedder with dimension validation.
type Embedder struct {
	model     embeddings.Embedder
	name      string
	mu        sync.RWMutex
	dimension int
}

// NewFromConfig builds the langchaingo client named by cfg.Provider.
func NewFromConfig(cfg Config) (*Embedder, error) {
	var client embeddings.EmbedderClient
	switch cfg.Provider {
	case "ollama":
		opts := []ollama.Option{ollama.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
		}
		llm, err := ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create ollama client: %w", err)
		}
		client = llm
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		opts := []openai.Option{openai.WithToken(cfg.APIKey), openai.WithEmbeddingModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create openai client: %w", err)
		}
		client = llm
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
	var embOpts []embeddings.Option
	if cfg.BatchSize > 0 {
		embOpts = append(embOpts, embeddings.WithBatchSize(cfg.BatchSize))
	}
	model, err := embeddings.NewEmbedder(client, embOpts...)
	if err != nil {
		return nil, fmt.Errorf("create %s embedder: %w", cfg.Provider, err)
	}
	return New(model, cfg.Provider+"/"+cfg.Model, cfg.Dimension), nil
}

// New wraps an existing langchaingo embedder.
func New(model embeddings.Embedder, name string, dimension int) *Embedder {
	return &Embedder{model: model, name: name, dimension: dimension}
}

func (e *Embedder) Name() string { return e.name }

func (e *Embedder) Dimension() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dimension
}

func (e *Embedder) Embed(ctx context.Context, text string) (domain.Embedding, error) {
	v, err := e.model.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if err := e.check(len(v)); err != nil {
		return nil, err
	}
	return v, nil
}

func (e *Embedder) EmbedAll(ctx context.Context, segments []domain.Segment) ([]domain.Embedding, error) {
	if len(segments) == 0 {
		return []domain.Embedding{}, nil
	}
	texts := make([]string, len(segments))
	for i, s := range segments {
		texts[i] = s.Text
	}
	vectors, err := e.model.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed batch: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("count mismatch: got %d, want %d", len(vectors), len(texts))
	}
	out := make([]domain.Embedding, len(vectors))
	for i, v := range vectors {
		if err := e.check(len(v)); err != nil {
			return nil, fmt.Errorf("embedding %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func (e *Embedder) check(got int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dimension == 0 {
		e.dimension = got
		return nil
	}
	if got != e.dimension {
		return fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, got, e.dimension)
	}
	return nil
}
