// Package provider bounds every external service call with a timeout and
// reports failures as domain.ErrProviderUnavailable.
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ragchat/internal/domain"
)

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// unavailable tags err as a provider failure. Dimension mismatches are contract
// violations, not outages, and a caller's own cancellation is passed through.
func unavailable(name string, parent context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrDimensionMismatch) || errors.Is(err, domain.ErrNotPrepared) {
		return err
	}
	if parent.Err() != nil {
		return err
	}
	return fmt.Errorf("%s: %w: %w", name, domain.ErrProviderUnavailable, err)
}

// Embedder guards an embedding provider.
type Embedder struct {
	inner   domain.Embedder
	timeout time.Duration
}

func GuardEmbedder(inner domain.Embedder, timeout time.Duration) *Embedder {
	return &Embedder{inner: inner, timeout: timeout}
}

func (e *Embedder) Name() string   { return e.inner.Name() }
func (e *Embedder) Dimension() int { return e.inner.Dimension() }

func (e *Embedder) Embed(ctx context.Context, text string) (domain.Embedding, error) {
	cctx, cancel := withTimeout(ctx, e.timeout)
	defer cancel()
	v, err := e.inner.Embed(cctx, text)
	return v, unavailable("embedder "+e.inner.Name(), ctx, err)
}

// EmbedAll is used during ingestion and runs without the per-call timeout.
func (e *Embedder) EmbedAll(ctx context.Context, segments []domain.Segment) ([]domain.Embedding, error) {
	v, err := e.inner.EmbedAll(ctx, segments)
	return v, unavailable("embedder "+e.inner.Name(), ctx, err)
}

func (e *Embedder) Prepare(corpus []string) error {
	if p, ok := e.inner.(domain.Preparer); ok {
		return p.Prepare(corpus)
	}
	return nil
}

// LanguageModel guards a language model.
type LanguageModel struct {
	inner   domain.LanguageModel
	timeout time.Duration
}

func GuardLanguageModel(inner domain.LanguageModel, timeout time.Duration) *LanguageModel {
	return &LanguageModel{inner: inner, timeout: timeout}
}

func (m *LanguageModel) Generate(ctx context.Context, prompt string, history []domain.ConversationTurn) (string, error) {
	cctx, cancel := withTimeout(ctx, m.timeout)
	defer cancel()
	out, err := m.inner.Generate(cctx, prompt, history)
	return out, unavailable("language model", ctx, err)
}

// WebSearcher guards a web search provider.
type WebSearcher struct {
	inner   domain.WebSearcher
	timeout time.Duration
}

func GuardWebSearcher(inner domain.WebSearcher, timeout time.Duration) *WebSearcher {
	return &WebSearcher{inner: inner, timeout: timeout}
}

func (w *WebSearcher) Search(ctx context.Context, query string, maxResults int) ([]domain.WebResult, error) {
	cctx, cancel := withTimeout(ctx, w.timeout)
	defer cancel()
	out, err := w.inner.Search(cctx, query, maxResults)
	return out, unavailable("web search", ctx, err)
}
