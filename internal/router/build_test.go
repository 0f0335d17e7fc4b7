package router

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/config"
	"ragchat/internal/domain"
	"ragchat/internal/retriever"
)

func testCatalog(t *testing.T) *retriever.Catalog {
	t.Helper()
	c := &retriever.Catalog{}
	require.NoError(t, c.Add(retriever.Source{Retriever: namedRetriever("cooking"), Description: "Recipes and kitchen techniques"}))
	require.NoError(t, c.Add(retriever.Source{Retriever: namedRetriever("tax")}))
	require.NoError(t, c.Add(retriever.Source{Retriever: namedRetriever("web"), Description: "The open web"}))
	return c
}

func TestBuild(t *testing.T) {
	ctx := context.Background()

	t.Run("multi selects everything", func(t *testing.T) {
		r, err := Build(config.RouterConfig{Type: "multi"}, testCatalog(t), nil, nil)
		require.NoError(t, err)
		got, err := r.Route(ctx, "q")
		require.NoError(t, err)
		assert.Equal(t, []string{"cooking", "tax", "web"}, names(got))
	})

	t.Run("multi honours source order", func(t *testing.T) {
		r, err := Build(config.RouterConfig{Type: "multi", Sources: []string{"web", "tax"}}, testCatalog(t), nil, nil)
		require.NoError(t, err)
		got, err := r.Route(ctx, "q")
		require.NoError(t, err)
		assert.Equal(t, []string{"web", "tax"}, names(got))
	})

	t.Run("fixed pins first source", func(t *testing.T) {
		r, err := Build(config.RouterConfig{Type: "fixed"}, testCatalog(t), nil, nil)
		require.NoError(t, err)
		got, err := r.Route(ctx, "q")
		require.NoError(t, err)
		assert.Equal(t, []string{"cooking"}, names(got))
	})

	t.Run("classify falls back to source name", func(t *testing.T) {
		lm := &scriptedModel{answer: "2"}
		r, err := Build(config.RouterConfig{Type: "classify"}, testCatalog(t), lm, nil)
		require.NoError(t, err)
		got, err := r.Route(ctx, "how do I file taxes?")
		require.NoError(t, err)
		assert.Equal(t, []string{"tax"}, names(got))
		require.Len(t, lm.prompts, 1)
		assert.Contains(t, lm.prompts[0], "1: Recipes and kitchen techniques")
		assert.Contains(t, lm.prompts[0], "2: tax")
	})

	t.Run("gate wraps named source", func(t *testing.T) {
		lm := &scriptedModel{answer: "yes"}
		cfg := config.RouterConfig{Type: "gate", Gate: config.GateConfig{Source: "web", Template: "About news? {{query}}"}}
		r, err := Build(cfg, testCatalog(t), lm, nil)
		require.NoError(t, err)
		got, err := r.Route(ctx, "latest elections")
		require.NoError(t, err)
		assert.Equal(t, []string{"web"}, names(got))
		assert.Equal(t, []string{"About news? latest elections"}, lm.prompts)
	})

	t.Run("unknown source", func(t *testing.T) {
		_, err := Build(config.RouterConfig{Type: "gate", Gate: config.GateConfig{Source: "nope"}}, testCatalog(t), nil, nil)
		assert.ErrorIs(t, err, domain.ErrUnknownSource)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := Build(config.RouterConfig{Type: "random"}, testCatalog(t), nil, nil)
		assert.Error(t, err)
	})
}
