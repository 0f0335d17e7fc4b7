package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"ragchat/internal/domain"
)

type recordingLLM struct {
	messages []llms.MessageContent
	opts     llms.CallOptions
	reply    string
	err      error
}

func (r *recordingLLM) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	r.messages = messages
	for _, o := range options {
		o(&r.opts)
	}
	if r.err != nil {
		return nil, r.err
	}
	if r.reply == "" {
		return &llms.ContentResponse{}, nil
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: r.reply}}}, nil
}

func (r *recordingLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, r, prompt, options...)
}

func textOf(t *testing.T, m llms.MessageContent) string {
	t.Helper()
	require.Len(t, m.Parts, 1)
	part, ok := m.Parts[0].(llms.TextContent)
	require.True(t, ok)
	return part.Text
}

func TestGenerateBuildsConversation(t *testing.T) {
	fake := &recordingLLM{reply: "Paris"}
	m := New(fake, "test", 0.3, "be brief")

	history := []domain.ConversationTurn{
		{Role: domain.RoleUser, Text: "hi"},
		{Role: domain.RoleAssistant, Text: "hello"},
	}
	answer, err := m.Generate(context.Background(), "capital of France?", history)
	require.NoError(t, err)
	assert.Equal(t, "Paris", answer)
	assert.Equal(t, "test", m.Model())

	require.Len(t, fake.messages, 4)
	assert.Equal(t, llms.ChatMessageTypeSystem, fake.messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, fake.messages[1].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, fake.messages[2].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, fake.messages[3].Role)
	assert.Equal(t, "capital of France?", textOf(t, fake.messages[3]))
	assert.InDelta(t, 0.3, fake.opts.Temperature, 1e-9)
}

func TestGenerateWithoutSystemPrompt(t *testing.T) {
	fake := &recordingLLM{reply: "ok"}
	_, err := New(fake, "test", 0, "").Generate(context.Background(), "q", nil)
	require.NoError(t, err)
	require.Len(t, fake.messages, 1)
}

func TestGenerateErrors(t *testing.T) {
	boom := errors.New("503")
	_, err := New(&recordingLLM{err: boom}, "test", 0, "").Generate(context.Background(), "q", nil)
	require.ErrorIs(t, err, boom)

	_, err = New(&recordingLLM{}, "test", 0, "").Generate(context.Background(), "q", nil)
	require.Error(t, err)
}

func TestNewModelUnsupported(t *testing.T) {
	_, err := NewModel(context.Background(), Config{Provider: "nope"})
	require.Error(t, err)
	_, err = NewModel(context.Background(), Config{Provider: "anthropic"})
	require.Error(t, err)
}
