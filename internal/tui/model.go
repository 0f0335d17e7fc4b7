package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ragchat/internal/service"
)

// ChatPort is the TUI-facing subset of the chat service.
type ChatPort interface {
	Handle(ctx context.Context, input string) (service.Outcome, error)
}

type state int

const (
	idle state = iota
	processing
)

type speaker int

const (
	you speaker = iota
	assistant
	failure
)

type entry struct {
	who  speaker
	text string
}

// answerMsg carries the result of one turn back into the update loop.
type answerMsg struct {
	outcome service.Outcome
	err     error
}

// Model is the Bubble Tea model for the chat application.
type Model struct {
	ctx        context.Context
	chat       ChatPort
	input      textinput.Model
	viewport   viewport.Model
	spinner    spinner.Model
	transcript []entry
	sources    string
	farewell   string
	status     string
	state      state
	ready      bool
	quitting   bool
}

// New creates a chat model. sources is shown under the title.
func New(ctx context.Context, chat ChatPort, sources, exitKeyword, farewell string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = fmt.Sprintf("Ask a question (%s to exit)", exitKeyword)
	ti.Focus()
	ti.CharLimit = 0
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		ctx:      ctx,
		chat:     chat,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		sources:  sources,
		farewell: farewell,
		status:   "Ready.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header + sources, status, spacer
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved-th)
		m.refresh()
		return m, nil

	case answerMsg:
		m.state = idle
		if msg.err != nil {
			m.transcript = append(m.transcript, entry{who: failure, text: msg.err.Error()})
			m.status = "Error: " + msg.err.Error()
			m.refresh()
			return m, nil
		}
		switch msg.outcome.Kind {
		case service.Exit:
			m.quitting = true
			return m, tea.Quit
		case service.Answered:
			m.transcript = append(m.transcript, entry{who: assistant, text: msg.outcome.Answer})
			m.status = "Ready."
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if m.state != processing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			m.quitting = true
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			if m.state == processing {
				return m, nil
			}
			q := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			if q == "" {
				return m, nil
			}
			m.state = processing
			m.status = "Thinking..."
			m.transcript = append(m.transcript, entry{who: you, text: q})
			m.refresh()
			return m, tea.Batch(m.spinner.Tick, m.ask(q))
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(q string) tea.Cmd {
	return func() tea.Msg {
		outcome, err := m.chat.Handle(m.ctx, q)
		return answerMsg{outcome: outcome, err: err}
	}
}

// View renders the transcript, input box and status line.
func (m Model) View() string {
	if m.quitting {
		return m.farewell + "\n"
	}
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("RAG Chat")
	sources := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.sources)
	status := m.status
	if m.state == processing {
		status = m.spinner.View() + " " + status
	}
	status = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(status)
	return header + "\n" + sources + "\n" + transcriptBoxStyle.Render(m.viewport.View()) + "\n" +
		queryBoxStyle.Render(m.input.View()) + "\n" + status
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) renderTranscript() string {
	if len(m.transcript) == 0 {
		return "No messages yet."
	}
	wrap := lipgloss.NewStyle().Width(max(10, m.viewport.Width-2))
	parts := make([]string, 0, len(m.transcript))
	for _, e := range m.transcript {
		var label string
		switch e.who {
		case you:
			label = youStyle.Render("You:")
		case assistant:
			label = assistantStyle.Render("Assistant:")
		case failure:
			label = errorStyle.Render("Error:")
		}
		parts = append(parts, wrap.Render(label+" "+e.text))
	}
	return strings.Join(parts, "\n\n")
}

var (
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	youStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)
