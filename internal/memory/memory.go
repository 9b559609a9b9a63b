// Package memory provides the append-only conversation buffer for one session.
package memory

import "github.com/tarunagarwal/turbott/internal/models"

// Memory is an ordered log of conversation turns, oldest first. It is owned by
// exactly one session and mutated only through Append and Clear.
type Memory struct {
	turns []models.ConversationTurn
}

// New returns an empty conversation memory.
func New() *Memory {
	return &Memory{}
}

// Append adds a turn to the end of the log.
func (m *Memory) Append(turn models.ConversationTurn) {
	m.turns = append(m.turns, turn)
}

// History returns a copy of all turns in chronological order.
func (m *Memory) History() []models.ConversationTurn {
	out := make([]models.ConversationTurn, len(m.turns))
	copy(out, m.turns)
	return out
}

// Clear resets the log to empty.
func (m *Memory) Clear() {
	m.turns = nil
}

// Len returns the number of turns.
func (m *Memory) Len() int {
	return len(m.turns)
}
