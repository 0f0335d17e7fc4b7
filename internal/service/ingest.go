// Package service wires ingestion, the conversation orchestrator and the session loop.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"ragchat/internal/chunker"
	"ragchat/internal/config"
	"ragchat/internal/domain"
	"ragchat/internal/retriever"
	"ragchat/internal/vectorstore"
	memstore "ragchat/internal/vectorstore/memory"
)

// Describer summarizes one source's text in contrast to the other sources.
type Describer interface {
	Describe(text string, others []string) string
}

// WebSource describes the optional web search retriever.
type WebSource struct {
	Name        string
	Description string
	Searcher    domain.WebSearcher
	MaxResults  int
}

// Ingestor turns configured document sources into a catalog of retrievers.
type Ingestor struct {
	chunker   *chunker.SentenceChunker
	embedder  domain.Embedder
	describer Describer
	web       *WebSource
	newStore  func() vectorstore.Storage
	logger    *zap.Logger
}

// IngestorOption customizes an Ingestor.
type IngestorOption func(*Ingestor)

// WithWebSource appends a web search retriever after the document sources.
func WithWebSource(web WebSource) IngestorOption {
	return func(i *Ingestor) { i.web = &web }
}

// WithDescriber derives descriptions for sources configured without one.
func WithDescriber(d Describer) IngestorOption {
	return func(i *Ingestor) { i.describer = d }
}

// WithStoreFactory replaces the in-memory store used for each source.
func WithStoreFactory(f func() vectorstore.Storage) IngestorOption {
	return func(i *Ingestor) { i.newStore = f }
}

func WithIngestLogger(logger *zap.Logger) IngestorOption {
	return func(i *Ingestor) { i.logger = logger }
}

func NewIngestor(ch *chunker.SentenceChunker, embedder domain.Embedder, opts ...IngestorOption) *Ingestor {
	i := &Ingestor{chunker: ch, embedder: embedder, logger: zap.NewNop()}
	for _, o := range opts {
		o(i)
	}
	if i.newStore == nil {
		logger := i.logger
		i.newStore = func() vectorstore.Storage { return memstore.NewStorage(logger.Named("store")) }
	}
	return i
}

type loadedSource struct {
	cfg      config.SourceConfig
	segments []domain.Segment
	text     strings.Builder
}

// Ingest reads, chunks and embeds every source into its own store and returns the
// resulting retrievers in configuration order, web search last.
func (i *Ingestor) Ingest(ctx context.Context, sources []config.SourceConfig) (*retriever.Catalog, error) {
	loaded := make([]*loadedSource, 0, len(sources))
	var corpus []string
	for _, src := range sources {
		ls, err := i.load(src)
		if err != nil {
			return nil, err
		}
		for _, seg := range ls.segments {
			corpus = append(corpus, seg.Text)
		}
		loaded = append(loaded, ls)
	}

	if p, ok := i.embedder.(domain.Preparer); ok && len(corpus) > 0 {
		if err := p.Prepare(corpus); err != nil {
			return nil, fmt.Errorf("prepare embedder: %w", err)
		}
	}

	catalog := &retriever.Catalog{}
	for n, ls := range loaded {
		src, err := i.index(ctx, ls, otherTexts(loaded, n))
		if err != nil {
			return nil, err
		}
		if err := catalog.Add(src); err != nil {
			return nil, err
		}
	}

	if i.web != nil {
		r := retriever.NewWebSearchRetriever(i.web.Name, i.web.Searcher, retriever.Options{
			MaxResults: i.web.MaxResults,
			Logger:     i.logger,
		})
		if err := catalog.Add(retriever.Source{Retriever: r, Description: i.web.Description}); err != nil {
			return nil, err
		}
	}
	return catalog, nil
}

func (i *Ingestor) load(src config.SourceConfig) (*loadedSource, error) {
	paths, err := expand(src.Paths)
	if err != nil {
		return nil, fmt.Errorf("source %q: %w", src.Name, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("source %q: no .txt documents found", src.Name)
	}
	ls := &loadedSource{cfg: src}
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", src.Name, err)
		}
		ls.segments = append(ls.segments, i.chunker.Chunk(src.Name, p, string(data))...)
		ls.text.WriteString(string(data))
		ls.text.WriteString("\n")
	}
	i.logger.Info("source loaded",
		zap.String("source", src.Name),
		zap.Int("documents", len(paths)),
		zap.Int("segments", len(ls.segments)))
	return ls, nil
}

func otherTexts(loaded []*loadedSource, skip int) []string {
	out := make([]string, 0, len(loaded))
	for n, ls := range loaded {
		if n != skip {
			out = append(out, ls.text.String())
		}
	}
	return out
}

func (i *Ingestor) index(ctx context.Context, ls *loadedSource, others []string) (retriever.Source, error) {
	name := ls.cfg.Name
	store := i.newStore()
	if len(ls.segments) > 0 {
		vectors, err := i.embedder.EmbedAll(ctx, ls.segments)
		if err != nil {
			return retriever.Source{}, fmt.Errorf("source %q: embed: %w", name, err)
		}
		if len(vectors) != len(ls.segments) {
			return retriever.Source{}, fmt.Errorf("source %q: embedder returned %d vectors for %d segments", name, len(vectors), len(ls.segments))
		}
		entries := make([]vectorstore.Entry, len(vectors))
		for j := range vectors {
			entries[j] = vectorstore.Entry{Embedding: vectors[j], Segment: ls.segments[j]}
		}
		if err := store.InsertAll(entries); err != nil {
			return retriever.Source{}, fmt.Errorf("source %q: %w", name, err)
		}
	}

	description := ls.cfg.Description
	if description == "" && i.describer != nil {
		description = i.describer.Describe(ls.text.String(), others)
		i.logger.Debug("derived description", zap.String("source", name), zap.String("description", description))
	}

	r := retriever.NewEmbeddingStoreRetriever(name, store, i.embedder, retriever.Options{
		MaxResults: ls.cfg.MaxResults,
		MinScore:   ls.cfg.MinScore,
		Logger:     i.logger,
	})
	return retriever.Source{Retriever: r, Description: description, Segments: store.Len()}, nil
}

// expand resolves glob patterns to .txt files, dropping duplicates.
// A pattern without matches must name an existing file.
func expand(patterns []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, p := range patterns {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		if matches == nil {
			if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("pattern %q matched nothing", p)
			}
			matches = []string{p}
		}
		for _, m := range matches {
			if !strings.HasSuffix(strings.ToLower(m), ".txt") || seen[m] {
				continue
			}
			seen[m] = true
			out = append(out, m)
		}
	}
	return out, nil
}
