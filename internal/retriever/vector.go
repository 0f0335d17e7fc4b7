// Package retriever implements content retrievers over vector stores and web search.
package retriever

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ragchat/internal/domain"
	"ragchat/internal/vectorstore"
)

const (
	defaultMaxResults = 3
	// candidateMultiplier widens the store query so filtering never starves the result.
	candidateMultiplier = 4
)

// Options bound what a retriever returns.
type Options struct {
	MaxResults int
	// MinScore drops results scoring strictly below it; equal scores are kept.
	MinScore float64
	Logger   *zap.Logger
}

func (o Options) normalized() Options {
	if o.MaxResults <= 0 {
		o.MaxResults = defaultMaxResults
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// EmbeddingStoreRetriever embeds the query and searches a vector store.
type EmbeddingStoreRetriever struct {
	name     string
	store    vectorstore.Storage
	embedder domain.Embedder
	opts     Options
}

func NewEmbeddingStoreRetriever(name string, store vectorstore.Storage, embedder domain.Embedder, opts Options) *EmbeddingStoreRetriever {
	return &EmbeddingStoreRetriever{name: name, store: store, embedder: embedder, opts: opts.normalized()}
}

func (r *EmbeddingStoreRetriever) Name() string { return r.name }

func (r *EmbeddingStoreRetriever) Retrieve(ctx context.Context, query string) ([]domain.ScoredSegment, error) {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retriever %s: %w", r.name, err)
	}
	candidates, err := r.store.Query(vec, r.opts.MaxResults*candidateMultiplier)
	if err != nil {
		return nil, fmt.Errorf("retriever %s: %w", r.name, err)
	}
	out := filterAndCap(candidates, r.opts.MinScore, r.opts.MaxResults)
	r.opts.Logger.Debug("retrieved",
		zap.String("retriever", r.name),
		zap.Int("candidates", len(candidates)),
		zap.Int("kept", len(out)))
	return out, nil
}

func filterAndCap(in []domain.ScoredSegment, minScore float64, maxResults int) []domain.ScoredSegment {
	out := make([]domain.ScoredSegment, 0, min(len(in), maxResults))
	for _, s := range in {
		if len(out) == maxResults {
			break
		}
		if s.Score < minScore {
			continue
		}
		out = append(out, s)
	}
	return out
}
