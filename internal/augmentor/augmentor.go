// Package augmentor merges retrieved content into the prompt sent to the language model.
package augmentor

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ragchat/internal/domain"
)

// Preamble introduces the retrieved passages. Changing it changes every augmented prompt.
const Preamble = "Answer the question below using the following information. " +
	"If the information is not relevant, answer from your own knowledge."

// PartialFailurePolicy decides what happens when one selected retriever fails.
type PartialFailurePolicy string

const (
	// DropFailed discards the failing retriever's contribution and keeps the rest.
	DropFailed PartialFailurePolicy = "drop"
	// FailTurn aborts the whole augmentation on the first retriever error.
	FailTurn PartialFailurePolicy = "fail"
)

// Options configure an Augmentor.
type Options struct {
	Policy         PartialFailurePolicy
	MaxConcurrency int
	Logger         *zap.Logger
}

// Augmentor routes a query, fans out to the selected retrievers and rewrites the prompt.
type Augmentor struct {
	router domain.QueryRouter
	opts   Options
}

func New(router domain.QueryRouter, opts Options) *Augmentor {
	if opts.Policy == "" {
		opts.Policy = DropFailed
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Augmentor{router: router, opts: opts}
}

// Augment returns query unchanged when nothing is retrieved, otherwise the augmented prompt.
func (a *Augmentor) Augment(ctx context.Context, query string) (string, error) {
	retrievers, err := a.router.Route(ctx, query)
	if err != nil {
		return "", fmt.Errorf("route: %w", err)
	}
	if len(retrievers) == 0 {
		return query, nil
	}
	segments, err := a.retrieveAll(ctx, query, retrievers)
	if err != nil {
		return "", err
	}
	if len(segments) == 0 {
		a.opts.Logger.Debug("no content retrieved", zap.Int("retrievers", len(retrievers)))
		return query, nil
	}
	return Format(query, segments), nil
}

// retrieveAll queries every retriever concurrently and concatenates results in router order.
func (a *Augmentor) retrieveAll(ctx context.Context, query string, retrievers []domain.ContentRetriever) ([]domain.ScoredSegment, error) {
	results := make([][]domain.ScoredSegment, len(retrievers))
	var g *errgroup.Group
	gctx := ctx
	if a.opts.Policy == FailTurn {
		g, gctx = errgroup.WithContext(ctx)
	} else {
		g = &errgroup.Group{}
	}
	if a.opts.MaxConcurrency > 0 {
		g.SetLimit(a.opts.MaxConcurrency)
	}
	for i, r := range retrievers {
		g.Go(func() error {
			res, err := r.Retrieve(gctx, query)
			if err != nil {
				if a.opts.Policy == FailTurn {
					return err
				}
				a.opts.Logger.Warn("retriever failed, dropping its results",
					zap.String("retriever", r.Name()), zap.Error(err))
				return nil
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	var merged []domain.ScoredSegment
	for _, res := range results {
		merged = append(merged, res...)
	}
	return merged, nil
}

// Format builds the augmented prompt: preamble, numbered passages, then the query.
func Format(query string, segments []domain.ScoredSegment) string {
	var b strings.Builder
	b.WriteString(Preamble)
	b.WriteString("\n\n")
	for i, s := range segments {
		fmt.Fprintf(&b, "--- passage %d ---\n", i+1)
		b.WriteString(strings.TrimSpace(s.Segment.Text))
		b.WriteString("\n")
	}
	b.WriteString("--- end of passages ---\n\nQuestion: ")
	b.WriteString(query)
	return b.String()
}
