package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"ragchat/internal/augmentor"
	"ragchat/internal/chunker"
	"ragchat/internal/config"
	"ragchat/internal/domain"
	"ragchat/internal/embedding"
	"ragchat/internal/embedding/langchain"
	"ragchat/internal/embedding/tfidf"
	"ragchat/internal/llm"
	"ragchat/internal/memory"
	"ragchat/internal/provider"
	"ragchat/internal/retriever"
	"ragchat/internal/router"
	"ragchat/internal/service"
	"ragchat/internal/summarizer"
	"ragchat/internal/websearch/tavily"
)

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

// newEmbedder assembles the configured embedder behind a timeout guard and query cache.
func newEmbedder(c config.EmbedderConfig) (domain.Embedder, error) {
	var inner domain.Embedder
	switch c.Type {
	case "tfidf", "":
		inner = tfidf.NewEmbedder()
	case "ollama", "openai":
		e, err := langchain.NewFromConfig(langchain.Config{
			Provider:  c.Type,
			Model:     c.Model,
			BaseURL:   c.BaseURL,
			APIKey:    envOrEmpty(c.APIKeyEnv),
			BatchSize: c.BatchSize,
			Dimension: c.Dimension,
		})
		if err != nil {
			return nil, fmt.Errorf("init %s embedder: %w", c.Type, err)
		}
		inner = e
	default:
		return nil, fmt.Errorf("unknown embedder: %s", c.Type)
	}
	return embedding.NewCached(provider.GuardEmbedder(inner, seconds(c.TimeoutSecs)), c.CacheSize)
}

func newLanguageModel(ctx context.Context, c config.LLMConfig) (domain.LanguageModel, error) {
	m, err := llm.NewModel(ctx, llm.Config{
		Provider:     c.Provider,
		Model:        c.Model,
		BaseURL:      c.BaseURL,
		APIKey:       envOrEmpty(c.APIKeyEnv),
		Temperature:  c.Temperature,
		SystemPrompt: c.SystemPrompt,
	})
	if err != nil {
		return nil, fmt.Errorf("init language model: %w", err)
	}
	return provider.GuardLanguageModel(m, seconds(c.TimeoutSecs)), nil
}

func newWebSource(c config.WebSearchConfig) (service.WebSource, error) {
	if c.Provider != "tavily" {
		return service.WebSource{}, fmt.Errorf("unknown web search provider: %s", c.Provider)
	}
	client, err := tavily.NewClient(tavily.Config{
		BaseURL:           c.BaseURL,
		APIKeyEnv:         c.APIKeyEnv,
		SearchDepth:       c.SearchDepth,
		Timeout:           seconds(c.TimeoutSecs),
		RequestsPerSecond: c.RequestsPerSecond,
		MaxRetries:        c.MaxRetries,
	})
	if err != nil {
		return service.WebSource{}, fmt.Errorf("init web search: %w", err)
	}
	return service.WebSource{
		Name:        c.Name,
		Description: c.Description,
		Searcher:    provider.GuardWebSearcher(client, seconds(c.TimeoutSecs)),
		MaxResults:  c.MaxResults,
	}, nil
}

func newIngestor(c *config.AppConfig, embedder domain.Embedder, log *zap.Logger, extra ...service.IngestorOption) (*service.Ingestor, error) {
	if c.Chunker.Type != "sentence" {
		return nil, fmt.Errorf("unknown chunker: %s", c.Chunker.Type)
	}
	opts := []service.IngestorOption{service.WithIngestLogger(log.Named("ingest"))}
	switch c.Summarizer.Type {
	case "frequency":
		opts = append(opts, service.WithDescriber(summarizer.NewDescriber(c.Summarizer.MaxSentences, c.Summarizer.MaxChars)))
	case "none":
	default:
		return nil, fmt.Errorf("unknown summarizer: %s", c.Summarizer.Type)
	}
	opts = append(opts, extra...)
	ch := chunker.NewSentenceChunker(c.Chunker.SentencesPerChunk, c.Chunker.OverlapSentences)
	return service.NewIngestor(ch, embedder, opts...), nil
}

// app is everything a chat front end needs.
type app struct {
	chat    *service.ChatService
	catalog *retriever.Catalog
}

func buildApp(ctx context.Context, c *config.AppConfig, log *zap.Logger) (*app, error) {
	embedder, err := newEmbedder(c.Embedder)
	if err != nil {
		return nil, err
	}
	lm, err := newLanguageModel(ctx, c.LLM)
	if err != nil {
		return nil, err
	}

	var extra []service.IngestorOption
	if c.WebSearch.Enabled {
		web, err := newWebSource(c.WebSearch)
		if err != nil {
			return nil, err
		}
		extra = append(extra, service.WithWebSource(web))
	}
	ingestor, err := newIngestor(c, embedder, log, extra...)
	if err != nil {
		return nil, err
	}
	catalog, err := ingestor.Ingest(ctx, c.Sources)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	qr, err := router.Build(c.Router, catalog, lm, log)
	if err != nil {
		return nil, err
	}
	aug := augmentor.New(qr, augmentor.Options{
		Policy:         augmentor.PartialFailurePolicy(c.Augmentor.PartialFailure),
		MaxConcurrency: c.Augmentor.MaxConcurrency,
		Logger:         log.Named("augmentor"),
	})
	window := memory.NewWindow(c.Memory.MaxTurns, log.Named("memory"))
	chat := service.NewChatService(aug, lm, window, c.Session.ExitKeyword, log.Named("chat"))
	return &app{chat: chat, catalog: catalog}, nil
}

func envOrEmpty(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
