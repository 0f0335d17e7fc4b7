package router

import (
	"fmt"

	"go.uber.org/zap"

	"ragchat/internal/config"
	"ragchat/internal/domain"
	"ragchat/internal/retriever"
)

// Build constructs the router variant named by cfg.Type over the catalog.
// Classifying and gate routers consult lm on every query.
func Build(cfg config.RouterConfig, catalog *retriever.Catalog, lm domain.LanguageModel, logger *zap.Logger) (domain.QueryRouter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("router")

	switch cfg.Type {
	case "fixed":
		sources, err := catalog.Select(cfg.Sources)
		if err != nil {
			return nil, err
		}
		// Without an explicit list a fixed router pins the first source.
		if len(cfg.Sources) == 0 && len(sources) > 1 {
			sources = sources[:1]
		}
		return NewFixedRouter(retrievers(sources)...), nil
	case "multi", "":
		sources, err := catalog.Select(cfg.Sources)
		if err != nil {
			return nil, err
		}
		return NewDefaultMultiRouter(retrievers(sources)...), nil
	case "classify":
		sources, err := catalog.Select(cfg.Sources)
		if err != nil {
			return nil, err
		}
		descriptors := make([]Descriptor, 0, len(sources))
		for _, s := range sources {
			desc := s.Description
			if desc == "" {
				desc = s.Retriever.Name()
			}
			descriptors = append(descriptors, Descriptor{Retriever: s.Retriever, Description: desc})
		}
		return NewDescriptionClassifyingRouter(lm, descriptors, logger), nil
	case "gate":
		src, err := catalog.Lookup(cfg.Gate.Source)
		if err != nil {
			return nil, err
		}
		return NewConditionalGateRouter(lm, src.Retriever, cfg.Gate.Template, cfg.Gate.NegativeTokens, logger), nil
	default:
		return nil, fmt.Errorf("unknown router type %q", cfg.Type)
	}
}

func retrievers(sources []retriever.Source) []domain.ContentRetriever {
	out := make([]domain.ContentRetriever, 0, len(sources))
	for _, s := range sources {
		out = append(out, s.Retriever)
	}
	return out
}
