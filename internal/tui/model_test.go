package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/service"
)

type fakeChat struct {
	inputs  []string
	outcome service.Outcome
	err     error
}

func (f *fakeChat) Handle(_ context.Context, input string) (service.Outcome, error) {
	f.inputs = append(f.inputs, input)
	return f.outcome, f.err
}

func sized(t *testing.T, chat ChatPort) Model {
	t.Helper()
	m := New(context.Background(), chat, "Sources: docs", "quit", "Goodbye!")
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(Model)
}

func pressEnter(t *testing.T, m Model, text string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(text)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return updated.(Model), cmd
}

func TestEnterStartsTurn(t *testing.T) {
	chat := &fakeChat{outcome: service.Outcome{Kind: service.Answered, Answer: "Paris."}}
	m := sized(t, chat)

	m, cmd := pressEnter(t, m, "  capital of France?  ")
	require.NotNil(t, cmd)
	assert.Equal(t, processing, m.state)
	assert.Empty(t, m.input.Value())
	require.Len(t, m.transcript, 1)
	assert.Equal(t, entry{who: you, text: "capital of France?"}, m.transcript[0])

	msg := m.ask("capital of France?")()
	assert.Equal(t, []string{"capital of France?"}, chat.inputs)

	updated, _ := m.Update(msg)
	m = updated.(Model)
	assert.Equal(t, idle, m.state)
	require.Len(t, m.transcript, 2)
	assert.Equal(t, entry{who: assistant, text: "Paris."}, m.transcript[1])
	assert.Contains(t, m.View(), "Paris.")
}

func TestBlankInputIsIgnored(t *testing.T) {
	m := sized(t, &fakeChat{})
	m, cmd := pressEnter(t, m, "   ")
	assert.Nil(t, cmd)
	assert.Equal(t, idle, m.state)
	assert.Empty(t, m.transcript)
}

func TestEnterWhileProcessingIsIgnored(t *testing.T) {
	m := sized(t, &fakeChat{})
	m, _ = pressEnter(t, m, "first")
	m, cmd := pressEnter(t, m, "second")
	assert.Nil(t, cmd)
	assert.Len(t, m.transcript, 1)
}

func TestErrorKeepsSessionAlive(t *testing.T) {
	m := sized(t, &fakeChat{})
	m, _ = pressEnter(t, m, "hello")

	updated, cmd := m.Update(answerMsg{err: errors.New("provider unavailable")})
	m = updated.(Model)
	assert.Nil(t, cmd)
	assert.Equal(t, idle, m.state)
	assert.Equal(t, "Error: provider unavailable", m.status)
	assert.False(t, m.quitting)
}

func TestExitOutcomeQuits(t *testing.T) {
	m := sized(t, &fakeChat{})
	updated, cmd := m.Update(answerMsg{outcome: service.Outcome{Kind: service.Exit}})
	m = updated.(Model)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, "Goodbye!\n", m.View())
}
