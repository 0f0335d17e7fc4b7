// Package embedding holds embedding provider decorators shared by all backends.
package embedding

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"ragchat/internal/domain"
)

// Cached memoizes query embeddings of an inner Embedder in an LRU cache.
// Batch embedding during ingestion bypasses the cache.
type Cached struct {
	inner domain.Embedder
	cache *lru.Cache[string, domain.Embedding]
}

// NewCached wraps inner with a cache of the given size. A non-positive size returns inner unchanged.
func NewCached(inner domain.Embedder, size int) (domain.Embedder, error) {
	if size <= 0 {
		return inner, nil
	}
	c, err := lru.New[string, domain.Embedding](size)
	if err != nil {
		return nil, err
	}
	return &Cached{inner: inner, cache: c}, nil
}

func (c *Cached) Name() string   { return c.inner.Name() }
func (c *Cached) Dimension() int { return c.inner.Dimension() }

func (c *Cached) Embed(ctx context.Context, text string) (domain.Embedding, error) {
	if v, ok := c.cache.Get(text); ok {
		return v, nil
	}
	v, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(text, v)
	return v, nil
}

func (c *Cached) EmbedAll(ctx context.Context, segments []domain.Segment) ([]domain.Embedding, error) {
	return c.inner.EmbedAll(ctx, segments)
}

// Prepare forwards to the inner embedder and drops cached vectors built from an older vocabulary.
func (c *Cached) Prepare(corpus []string) error {
	p, ok := c.inner.(domain.Preparer)
	if !ok {
		return nil
	}
	if err := p.Prepare(corpus); err != nil {
		return err
	}
	c.cache.Purge()
	return nil
}
