package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// TurnHandler is the part of ChatService the session loop drives.
type TurnHandler interface {
	Handle(ctx context.Context, input string) (Outcome, error)
}

// Session is a line-oriented chat loop.
type Session struct {
	chat     TurnHandler
	prompt   string
	farewell string
	logger   *zap.Logger
}

func NewSession(chat TurnHandler, prompt, farewell string, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{chat: chat, prompt: prompt, farewell: farewell, logger: logger}
}

// Run reads lines from in until the exit keyword, EOF or cancellation.
// Turn failures are printed and the loop continues. Cancelling ctx, as an
// interrupt does, ends the session cleanly and returns nil.
func (s *Session) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	lines, readErr := readLines(ctx, in)

	for {
		if ctx.Err() != nil {
			return s.interrupted(ctx)
		}
		if s.prompt != "" {
			fmt.Fprint(out, s.prompt)
		}

		var line string
		select {
		case <-ctx.Done():
			return s.interrupted(ctx)
		case l, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					return fmt.Errorf("read input: %w", err)
				}
				return nil
			}
			line = l
		}

		outcome, err := s.chat.Handle(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				return s.interrupted(ctx)
			}
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		switch outcome.Kind {
		case Exit:
			if s.farewell != "" {
				fmt.Fprintln(out, s.farewell)
			}
			s.logger.Debug("session ended by user")
			return nil
		case Answered:
			fmt.Fprintln(out, outcome.Answer)
		}
	}
}

// interrupted reports a cancelled session as a clean end; a deadline is still an error.
func (s *Session) interrupted(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		s.logger.Debug("session interrupted")
		return nil
	}
	return ctx.Err()
}

// readLines scans in on its own goroutine so a blocked read does not delay
// cancellation. lines is closed at EOF, after the scan error is sent.
func readLines(ctx context.Context, in io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()
	return lines, readErr
}
