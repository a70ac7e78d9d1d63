package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLifecycle(t *testing.T) {
	s := NewSession()
	assert.Equal(t, Recording, s.State())
	assert.NotEmpty(t, s.ID)

	state, err := s.TogglePause()
	require.NoError(t, err)
	assert.Equal(t, Paused, state)

	state, err = s.TogglePause()
	require.NoError(t, err)
	assert.Equal(t, Recording, state)

	s.Stop()
	assert.Equal(t, Stopped, s.State())

	// Stopped is terminal.
	_, err = s.TogglePause()
	assert.ErrorIs(t, err, ErrSessionStopped)
	assert.Equal(t, Stopped, s.State())
}

func TestCommandQueueDrain(t *testing.T) {
	q := NewCommandQueue()
	q.Enqueue("first")
	q.Enqueue("second")
	assert.Equal(t, 2, q.Len())

	drained := q.Drain()
	require.Len(t, drained, 2)
	assert.Equal(t, "first", drained[0].Text)
	assert.Equal(t, "second", drained[1].Text)
	assert.False(t, drained[0].SubmittedAt.IsZero())

	// Drain clears; a second drain is empty.
	assert.Empty(t, q.Drain())
	assert.Equal(t, 0, q.Len())
}
