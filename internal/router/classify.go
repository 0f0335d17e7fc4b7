package router

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"ragchat/internal/domain"
)

// Descriptor pairs a retriever with a natural-language description of its domain.
type Descriptor struct {
	Retriever   domain.ContentRetriever
	Description string
}

// DescriptionClassifyingRouter asks the language model which descriptions match the query.
// An answer naming no known label selects nothing.
type DescriptionClassifyingRouter struct {
	model       domain.LanguageModel
	descriptors []Descriptor
	logger      *zap.Logger
}

func NewDescriptionClassifyingRouter(model domain.LanguageModel, descriptors []Descriptor, logger *zap.Logger) *DescriptionClassifyingRouter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DescriptionClassifyingRouter{model: model, descriptors: descriptors, logger: logger}
}

func (r *DescriptionClassifyingRouter) Route(ctx context.Context, query string) ([]domain.ContentRetriever, error) {
	if len(r.descriptors) == 0 {
		return nil, nil
	}
	answer, err := r.model.Generate(ctx, ClassificationPrompt(query, r.descriptors), nil)
	if err != nil {
		return nil, fmt.Errorf("classify query: %w", err)
	}
	labels := ParseSelection(answer, len(r.descriptors))
	if len(labels) == 0 {
		r.logger.Info("router answer named no source, skipping retrieval", zap.String("answer", answer))
		return nil, nil
	}
	selected := make([]domain.ContentRetriever, 0, len(labels))
	names := make([]string, 0, len(labels))
	for _, l := range labels {
		rt := r.descriptors[l-1].Retriever
		selected = append(selected, rt)
		names = append(names, rt.Name())
	}
	r.logger.Debug("router decision", zap.String("answer", answer), zap.Strings("selected", names))
	return selected, nil
}

// ClassificationPrompt enumerates the descriptions under numeric labels starting at 1.
func ClassificationPrompt(query string, descriptors []Descriptor) string {
	var b strings.Builder
	b.WriteString("Based on the user query, determine the most suitable data source(s) to retrieve relevant information from the following options:\n")
	for i, d := range descriptors {
		fmt.Fprintf(&b, "%d: %s\n", i+1, d.Description)
	}
	b.WriteString("It is very important that your answer consists of either a single number or multiple numbers separated by commas and nothing else!\n")
	b.WriteString("User query: ")
	b.WriteString(query)
	return b.String()
}

var labelRe = regexp.MustCompile(`\d+`)

// ParseSelection recovers the labels in 1..n named by a free-text answer,
// ignoring surrounding filler. The result is ascending and free of duplicates;
// nil means nothing recognizable was named.
func ParseSelection(answer string, n int) []int {
	seen := make([]bool, n+1)
	found := false
	for _, m := range labelRe.FindAllString(answer, -1) {
		v, err := strconv.Atoi(m)
		if err != nil || v < 1 || v > n {
			continue
		}
		seen[v] = true
		found = true
	}
	if !found {
		return nil
	}
	var out []int
	for i := 1; i <= n; i++ {
		if seen[i] {
			out = append(out, i)
		}
	}
	return out
}
