// Package router decides which content retrievers to consult for a query.
package router

import (
	"context"

	"ragchat/internal/domain"
)

// FixedRouter always returns the same retrievers.
type FixedRouter struct {
	retrievers []domain.ContentRetriever
}

func NewFixedRouter(retrievers ...domain.ContentRetriever) *FixedRouter {
	return &FixedRouter{retrievers: retrievers}
}

func (r *FixedRouter) Route(context.Context, string) ([]domain.ContentRetriever, error) {
	return append([]domain.ContentRetriever(nil), r.retrievers...), nil
}

// DefaultMultiRouter returns every registered retriever in registration order.
type DefaultMultiRouter struct {
	retrievers []domain.ContentRetriever
}

func NewDefaultMultiRouter(retrievers ...domain.ContentRetriever) *DefaultMultiRouter {
	return &DefaultMultiRouter{retrievers: retrievers}
}

func (r *DefaultMultiRouter) Register(retriever domain.ContentRetriever) {
	r.retrievers = append(r.retrievers, retriever)
}

func (r *DefaultMultiRouter) Route(context.Context, string) ([]domain.ContentRetriever, error) {
	return append([]domain.ContentRetriever(nil), r.retrievers...), nil
}
