package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/domain"
)

type slowModel struct{}

func (slowModel) Generate(ctx context.Context, _ string, _ []domain.ConversationTurn) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

type failingSearch struct{ err error }

func (f failingSearch) Search(context.Context, string, int) ([]domain.WebResult, error) {
	return nil, f.err
}

type stubEmbedder struct{ err error }

func (stubEmbedder) Name() string   { return "stub" }
func (stubEmbedder) Dimension() int { return 1 }
func (s stubEmbedder) Embed(context.Context, string) (domain.Embedding, error) {
	if s.err != nil {
		return nil, s.err
	}
	return domain.Embedding{1}, nil
}
func (s stubEmbedder) EmbedAll(context.Context, []domain.Segment) ([]domain.Embedding, error) {
	return nil, s.err
}

func TestLanguageModelTimeout(t *testing.T) {
	m := GuardLanguageModel(slowModel{}, 10*time.Millisecond)
	_, err := m.Generate(context.Background(), "q", nil)
	require.ErrorIs(t, err, domain.ErrProviderUnavailable)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCallerCancellationPassesThrough(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := GuardLanguageModel(slowModel{}, time.Second)
	_, err := m.Generate(ctx, "q", nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestWebSearcherFailure(t *testing.T) {
	boom := errors.New("502 bad gateway")
	_, err := GuardWebSearcher(failingSearch{err: boom}, time.Second).Search(context.Background(), "q", 3)
	require.ErrorIs(t, err, domain.ErrProviderUnavailable)
	require.ErrorIs(t, err, boom)
}

func TestEmbedderKeepsContractErrors(t *testing.T) {
	e := GuardEmbedder(stubEmbedder{err: domain.ErrNotPrepared}, time.Second)
	_, err := e.Embed(context.Background(), "q")
	require.ErrorIs(t, err, domain.ErrNotPrepared)
	assert.NotErrorIs(t, err, domain.ErrProviderUnavailable)

	e = GuardEmbedder(stubEmbedder{err: errors.New("refused")}, time.Second)
	_, err = e.EmbedAll(context.Background(), nil)
	require.ErrorIs(t, err, domain.ErrProviderUnavailable)

	e = GuardEmbedder(stubEmbedder{}, 0)
	v, err := e.Embed(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, domain.Embedding{1}, v)
	assert.Equal(t, "stub", e.Name())
}
