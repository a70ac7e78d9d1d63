package engine

import (
	"sync"
	"time"
)

// Command is a free-text user instruction awaiting the next synthesis pass.
// The text is opaque; it only ever augments a generation prompt.
type Command struct {
	Text        string
	SubmittedAt time.Time
}

// CommandQueue is a FIFO of pending commands. Drain is atomic: a drained
// command belongs to exactly one pass and is never replayed, even if that
// pass fails.
type CommandQueue struct {
	mu      sync.Mutex
	pending []Command
}

// NewCommandQueue returns an empty queue.
func NewCommandQueue() *CommandQueue {
	return &CommandQueue{}
}

// Enqueue appends a command stamped with the current time.
func (q *CommandQueue) Enqueue(text string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, Command{Text: text, SubmittedAt: time.Now()})
}

// Drain returns and clears all pending commands in enqueue order.
func (q *CommandQueue) Drain() []Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out
}

// Len returns the number of pending commands.
func (q *CommandQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
