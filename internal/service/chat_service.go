package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"ragchat/internal/domain"
	"ragchat/internal/memory"
)

// Augmenter rewrites a query into the prompt sent to the language model.
type Augmenter interface {
	Augment(ctx context.Context, query string) (string, error)
}

// OutcomeKind tells the caller what a turn did.
type OutcomeKind int

const (
	// Skipped means the input was blank and nothing was consulted.
	Skipped OutcomeKind = iota
	// Exit means the input was the termination keyword.
	Exit
	// Answered means the model produced Answer.
	Answered
)

func (k OutcomeKind) String() string {
	switch k {
	case Skipped:
		return "skipped"
	case Exit:
		return "exit"
	case Answered:
		return "answered"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// Outcome is the result of one turn.
type Outcome struct {
	Kind   OutcomeKind
	Answer string
}

// ChatService runs one conversation: augment, generate, remember.
// Turns must not overlap; memory is only updated after a successful answer.
type ChatService struct {
	augmenter   Augmenter
	model       domain.LanguageModel
	memory      *memory.Window
	exitKeyword string
	logger      *zap.Logger
}

func NewChatService(augmenter Augmenter, model domain.LanguageModel, window *memory.Window, exitKeyword string, logger *zap.Logger) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if window == nil {
		window = memory.NewWindow(memory.DefaultCapacity, logger)
	}
	return &ChatService{
		augmenter:   augmenter,
		model:       model,
		memory:      window,
		exitKeyword: strings.TrimSpace(exitKeyword),
		logger:      logger,
	}
}

// IsExit reports whether input is the termination keyword, ignoring case and surrounding space.
func (s *ChatService) IsExit(input string) bool {
	return s.exitKeyword != "" && strings.EqualFold(strings.TrimSpace(input), s.exitKeyword)
}

// Handle processes one line of user input.
func (s *ChatService) Handle(ctx context.Context, input string) (Outcome, error) {
	query := strings.TrimSpace(input)
	if query == "" {
		return Outcome{Kind: Skipped}, nil
	}
	if s.IsExit(query) {
		return Outcome{Kind: Exit}, nil
	}

	prompt, err := s.augmenter.Augment(ctx, query)
	if err != nil {
		s.logger.Error("turn failed", zap.String("stage", "augment"), zap.Error(err))
		return Outcome{}, fmt.Errorf("augment: %w", err)
	}
	answer, err := s.model.Generate(ctx, prompt, s.memory.AsContext())
	if err != nil {
		s.logger.Error("turn failed", zap.String("stage", "generate"), zap.Error(err))
		return Outcome{}, fmt.Errorf("generate: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	s.memory.Append(
		domain.ConversationTurn{Role: domain.RoleUser, Text: query},
		domain.ConversationTurn{Role: domain.RoleAssistant, Text: answer},
	)
	s.logger.Debug("turn answered", zap.Int("memory", s.memory.Len()))
	return Outcome{Kind: Answered, Answer: answer}, nil
}

// Reset forgets the conversation so far.
func (s *ChatService) Reset() { s.memory.Clear() }
