// Package memory keeps a bounded window of recent conversation turns.
package memory

import (
	"sync"

	"go.uber.org/zap"

	"ragchat/internal/domain"
)

// DefaultCapacity is the number of turns kept when none is configured.
const DefaultCapacity = 10

// Window is a FIFO buffer of at most capacity turns. User and assistant turns
// share the capacity, so one exchange takes two slots.
type Window struct {
	mu       sync.Mutex
	capacity int
	turns    []domain.ConversationTurn
	logger   *zap.Logger
}

func NewWindow(capacity int, logger *zap.Logger) *Window {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Window{capacity: capacity, turns: make([]domain.ConversationTurn, 0, capacity), logger: logger}
}

// Append adds turn, evicting the oldest turns first when the window is full.
func (w *Window) Append(turns ...domain.ConversationTurn) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, t := range turns {
		if len(w.turns) >= w.capacity {
			evict := len(w.turns) - w.capacity + 1
			w.logger.Debug("evicting turns", zap.Int("count", evict))
			w.turns = append(w.turns[:0], w.turns[evict:]...)
		}
		w.turns = append(w.turns, t)
	}
}

// AsContext returns a copy of the window, oldest turn first.
func (w *Window) AsContext() []domain.ConversationTurn {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]domain.ConversationTurn(nil), w.turns...)
}

func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.turns)
}

func (w *Window) Capacity() int { return w.capacity }

func (w *Window) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.turns = w.turns[:0]
}
