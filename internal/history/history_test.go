package history

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repoanalyst/internal/domain"
)

func TestAppendEvictsOldest(t *testing.T) {
	m := NewManager(3)
	for i := 1; i <= 5; i++ {
		m.Append(domain.ConversationTurn{Query: fmt.Sprintf("q%d", i), Answer: fmt.Sprintf("a%d", i)})
	}
	require.Equal(t, 3, m.Len())
	turns := m.Snapshot()
	assert.Equal(t, "q3", turns[0].Query)
	assert.Equal(t, "q5", turns[2].Query)
}

func TestSnapshotIsACopy(t *testing.T) {
	m := NewManager(5)
	m.Append(domain.ConversationTurn{Query: "q1", Answer: "a1"})
	snap := m.Snapshot()
	m.Append(domain.ConversationTurn{Query: "q2", Answer: "a2"})
	require.Len(t, snap, 1)
	assert.Equal(t, "q1", snap[0].Query)
}

func TestTruncateKeepsMostRecent(t *testing.T) {
	m := NewManager(10)
	for i := 1; i <= 4; i++ {
		m.Append(domain.ConversationTurn{Query: fmt.Sprintf("q%d", i)})
	}
	m.Truncate(2)
	turns := m.Snapshot()
	require.Len(t, turns, 2)
	assert.Equal(t, "q3", turns[0].Query)
	assert.Equal(t, "q4", turns[1].Query)
}

func TestClear(t *testing.T) {
	m := NewManager(5)
	m.Append(domain.ConversationTurn{Query: "q"})
	m.Clear()
	assert.Zero(t, m.Len())
	assert.Empty(t, m.Snapshot())
}
