// Package conversation keeps the ordered, in-memory turn log of one chat.
package conversation

import (
	"sync"

	"clarity-backend/internal/models"
)

// Session is an append-only sequence of turns. It lives as long as the
// process that owns it and is never persisted.
type Session struct {
	mu    sync.RWMutex
	turns []models.Turn
}

func NewSession() *Session {
	return &Session{}
}

// Append adds a turn and returns the new length.
func (s *Session) Append(t models.Turn) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, t)
	return len(s.turns)
}

// Turns returns a copy of every turn in order.
func (s *Session) Turns() []models.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Prefix returns a copy of the first n turns.
func (s *Session) Prefix(n int) []models.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n > len(s.turns) {
		n = len(s.turns)
	}
	if n < 0 {
		n = 0
	}
	out := make([]models.Turn, n)
	copy(out, s.turns[:n])
	return out
}

func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}
