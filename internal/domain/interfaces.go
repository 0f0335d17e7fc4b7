package domain

import (
	"context"
	"errors"
)

var (
	// ErrDimensionMismatch is returned when a vector's length differs from the store's fixed dimension.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrProviderUnavailable wraps any failure or timeout of an external service call.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrNotPrepared is returned by embedders that must see the corpus before embedding.
	ErrNotPrepared = errors.New("embedder not prepared")
	// ErrUnknownSource is returned when configuration names a source that was never ingested.
	ErrUnknownSource = errors.New("unknown source")
)

// Segment is an immutable unit of retrievable text.
type Segment struct {
	Text     string
	SourceID string
	Metadata map[string]string
}

// Embedding is a fixed-length vector produced by an Embedder.
type Embedding []float32

// ScoredSegment is a retrieval hit. Score is normalized to [0,1].
type ScoredSegment struct {
	Segment Segment
	Score   float64
}

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is a single message kept by conversation memory.
type ConversationTurn struct {
	Role Role
	Text string
}

// WebResult is one ranked snippet returned by a web search provider.
// Score is nil when the provider does not supply one.
type WebResult struct {
	Title   string
	URL     string
	Content string
	Score   *float64
}

// Embedder maps text to vectors of a fixed dimension.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) (Embedding, error)
	// EmbedAll returns one embedding per segment, aligned index-for-index.
	EmbedAll(ctx context.Context, segments []Segment) ([]Embedding, error)
}

// Preparer is implemented by embedders that build a vocabulary from the corpus before use.
type Preparer interface {
	Prepare(corpus []string) error
}

// LanguageModel generates an answer for a prompt given prior conversation turns.
type LanguageModel interface {
	Generate(ctx context.Context, prompt string, history []ConversationTurn) (string, error)
}

// WebSearcher returns ranked snippets from the open web.
type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]WebResult, error)
}

// ContentRetriever turns a text query into ranked, filtered and capped results.
type ContentRetriever interface {
	Name() string
	Retrieve(ctx context.Context, query string) ([]ScoredSegment, error)
}

// QueryRouter selects the retrievers to consult for a query. An empty result means no augmentation.
type QueryRouter interface {
	Route(ctx context.Context, query string) ([]ContentRetriever, error)
}
