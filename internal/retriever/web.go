package retriever

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ragchat/internal/domain"
)

// defaultWebScore is assigned to snippets whose provider reports no score.
const defaultWebScore = 1.0

// WebSearchRetriever delegates the query to a web search provider.
type WebSearchRetriever struct {
	name     string
	searcher domain.WebSearcher
	opts     Options
}

func NewWebSearchRetriever(name string, searcher domain.WebSearcher, opts Options) *WebSearchRetriever {
	return &WebSearchRetriever{name: name, searcher: searcher, opts: opts.normalized()}
}

func (r *WebSearchRetriever) Name() string { return r.name }

func (r *WebSearchRetriever) Retrieve(ctx context.Context, query string) ([]domain.ScoredSegment, error) {
	results, err := r.searcher.Search(ctx, query, r.opts.MaxResults)
	if err != nil {
		return nil, fmt.Errorf("retriever %s: %w", r.name, err)
	}
	out := make([]domain.ScoredSegment, 0, min(len(results), r.opts.MaxResults))
	for _, res := range results {
		if len(out) == r.opts.MaxResults {
			break
		}
		score := defaultWebScore
		if res.Score != nil {
			score = *res.Score
		}
		text := res.Content
		if text == "" {
			text = res.Title
		}
		out = append(out, domain.ScoredSegment{
			Segment: domain.Segment{
				Text:     text,
				SourceID: res.URL,
				Metadata: map[string]string{"title": res.Title, "url": res.URL},
			},
			Score: score,
		})
	}
	r.opts.Logger.Debug("web results", zap.String("retriever", r.name), zap.Int("count", len(out)))
	return out, nil
}
