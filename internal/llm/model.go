// Package llm provides the chat language model using langchaingo.
package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"ragchat/internal/domain"
)

// Config selects and configures the langchaingo backend.
type Config struct {
	Provider     string // ollama, openai, anthropic, googleai
	Model        string
	BaseURL      string
	APIKey       string
	Temperature  float64
	SystemPrompt string
}

// Model wraps a langchaingo llms.Model for multi-turn generation.
type Model struct {
	llm          llms.Model
	modelName    string
	temperature  float64
	systemPrompt string
}

// NewModel creates an LLM model based on configuration.
func NewModel(ctx context.Context, cfg Config) (*Model, error) {
	var model llms.Model
	var err error

	switch cfg.Provider {
	case "ollama":
		opts := []ollama.Option{ollama.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
		}
		model, err = ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		opts := []openai.Option{openai.WithToken(cfg.APIKey), openai.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		model, err = openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case "anthropic":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.APIKey),
			anthropic.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	case "googleai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("Google AI API key required")
		}
		model, err = googleai.New(ctx,
			googleai.WithAPIKey(cfg.APIKey),
			googleai.WithDefaultModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("create googleai model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}

	return New(model, cfg.Model, cfg.Temperature, cfg.SystemPrompt), nil
}

// New wraps an existing langchaingo model.
func New(model llms.Model, name string, temperature float64, systemPrompt string) *Model {
	return &Model{llm: model, modelName: name, temperature: temperature, systemPrompt: systemPrompt}
}

// Generate sends the prior turns followed by prompt and returns the first choice.
func (m *Model) Generate(ctx context.Context, prompt string, history []domain.ConversationTurn) (string, error) {
	messages := make([]llms.MessageContent, 0, len(history)+2)
	if m.systemPrompt != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, m.systemPrompt))
	}
	for _, turn := range history {
		role := llms.ChatMessageTypeHuman
		if turn.Role == domain.RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, turn.Text))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, prompt))

	response, err := m.llm.GenerateContent(ctx, messages, llms.WithTemperature(m.temperature))
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}
	return response.Choices[0].Content, nil
}

// Model returns the LLM model name.
func (m *Model) Model() string {
	return m.modelName
}
