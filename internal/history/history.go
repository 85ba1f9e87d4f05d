package history

import "repoanalyst/internal/domain"

// Manager is a bounded ordered log of prior conversation turns. Eviction is
// FIFO: when the log exceeds its cap, the oldest turns are dropped first.
type Manager struct {
	turns    []domain.ConversationTurn
	maxTurns int
}

// NewManager creates a history manager retaining at most maxTurns turns.
func NewManager(maxTurns int) *Manager {
	if maxTurns <= 0 {
		maxTurns = 5
	}
	return &Manager{maxTurns: maxTurns}
}

// Append records a completed turn and evicts the oldest turns beyond the cap.
func (m *Manager) Append(turn domain.ConversationTurn) {
	m.turns = append(m.turns, turn)
	m.Truncate(m.maxTurns)
}

// Truncate keeps only the most recent max turns.
func (m *Manager) Truncate(max int) {
	if max <= 0 || len(m.turns) <= max {
		return
	}
	m.turns = m.turns[len(m.turns)-max:]
}

// Snapshot returns a copy of the current turns, oldest first. Callers own
// the copy; later appends never alter it.
func (m *Manager) Snapshot() []domain.ConversationTurn {
	out := make([]domain.ConversationTurn, len(m.turns))
	copy(out, m.turns)
	return out
}

// Len returns the number of retained turns.
func (m *Manager) Len() int { return len(m.turns) }

// Clear drops all retained turns.
func (m *Manager) Clear() { m.turns = nil }
