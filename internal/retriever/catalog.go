package retriever

import (
	"fmt"

	"ragchat/internal/domain"
)

// Source is a named retriever with the description used for routing.
type Source struct {
	Retriever   domain.ContentRetriever
	Description string
	// Segments is the number of ingested segments; zero for web search.
	Segments int
}

// Catalog holds the ingested sources in registration order.
type Catalog struct {
	sources []Source
	byName  map[string]int
}

// Add registers src. Names must be unique.
func (c *Catalog) Add(src Source) error {
	name := src.Retriever.Name()
	if c.byName == nil {
		c.byName = make(map[string]int)
	}
	if _, ok := c.byName[name]; ok {
		return fmt.Errorf("source %q registered twice", name)
	}
	c.byName[name] = len(c.sources)
	c.sources = append(c.sources, src)
	return nil
}

// Lookup returns the source registered under name.
func (c *Catalog) Lookup(name string) (Source, error) {
	i, ok := c.byName[name]
	if !ok {
		return Source{}, fmt.Errorf("%w: %q", domain.ErrUnknownSource, name)
	}
	return c.sources[i], nil
}

// Sources returns a copy of the registered sources in order.
func (c *Catalog) Sources() []Source {
	return append([]Source(nil), c.sources...)
}

// Select returns the named sources in the given order; no names selects all.
func (c *Catalog) Select(names []string) ([]Source, error) {
	if len(names) == 0 {
		return c.Sources(), nil
	}
	out := make([]Source, 0, len(names))
	for _, n := range names {
		src, err := c.Lookup(n)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}

func (c *Catalog) Len() int { return len(c.sources) }
