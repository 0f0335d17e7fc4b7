package router

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"ragchat/internal/domain"
)

// QueryPlaceholder is replaced by the user query in gate question templates.
const QueryPlaceholder = "{{query}}"

// DefaultGateTemplate asks whether the query belongs to the wrapped source's domain.
// Its negative answer, DefaultNegativeToken, is not a substring of the other
// answers or of common hedges such as "not sure" or "I don't know".
const DefaultGateTemplate = "Is the query '{{query}}' about artificial intelligence (AI, RAG, fine-tuning, embeddings, LLM)? " +
	"Answer only with 'relevant', 'irrelevant', or 'unsure'."

// DefaultNegativeToken closes the gate when the default template is used.
const DefaultNegativeToken = "irrelevant"

// ConditionalGateRouter consults its retriever unless the model answers negatively.
// Uncertain or unparseable answers still retrieve.
type ConditionalGateRouter struct {
	model          domain.LanguageModel
	retriever      domain.ContentRetriever
	template       string
	negativeTokens []string
	logger         *zap.Logger
}

func NewConditionalGateRouter(model domain.LanguageModel, retriever domain.ContentRetriever, template string, negativeTokens []string, logger *zap.Logger) *ConditionalGateRouter {
	if template == "" {
		template = DefaultGateTemplate
	}
	if len(negativeTokens) == 0 {
		negativeTokens = []string{DefaultNegativeToken}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConditionalGateRouter{
		model:          model,
		retriever:      retriever,
		template:       template,
		negativeTokens: negativeTokens,
		logger:         logger,
	}
}

func (r *ConditionalGateRouter) Route(ctx context.Context, query string) ([]domain.ContentRetriever, error) {
	prompt := strings.ReplaceAll(r.template, QueryPlaceholder, query)
	answer, err := r.model.Generate(ctx, prompt, nil)
	if err != nil {
		return nil, fmt.Errorf("gate query: %w", err)
	}
	if IsNegative(answer, r.negativeTokens) {
		r.logger.Debug("gate closed", zap.String("answer", answer))
		return nil, nil
	}
	r.logger.Debug("gate open", zap.String("answer", answer), zap.String("retriever", r.retriever.Name()))
	return []domain.ContentRetriever{r.retriever}, nil
}

// IsNegative reports whether the lowercased answer contains any negative token.
func IsNegative(answer string, negativeTokens []string) bool {
	lower := strings.ToLower(answer)
	for _, tok := range negativeTokens {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok != "" && strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}
