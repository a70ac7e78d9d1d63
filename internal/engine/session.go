package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionState is the capture lifecycle state.
type SessionState int

const (
	// Recording means segments are being ingested.
	Recording SessionState = iota
	// Paused stops ingestion; manual update triggers on the already-ingested
	// transcript remain legal.
	Paused
	// Stopped is terminal: no further mutation of ledger, document, or
	// command queue is permitted.
	Stopped
)

func (s SessionState) String() string {
	switch s {
	case Recording:
		return "recording"
	case Paused:
		return "paused"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// ErrSessionStopped is returned for operations attempted after Stop.
var ErrSessionStopped = fmt.Errorf("session is stopped")

// Session tracks the capture lifecycle of one meeting.
type Session struct {
	ID        string
	StartTime time.Time

	mu    sync.Mutex
	state SessionState
}

// NewSession creates a session in the Recording state.
func NewSession() *Session {
	return &Session{
		ID:        uuid.NewString(),
		StartTime: time.Now(),
		state:     Recording,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// TogglePause flips Recording and Paused and returns the new state.
func (s *Session) TogglePause() (SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case Recording:
		s.state = Paused
	case Paused:
		s.state = Recording
	case Stopped:
		return Stopped, ErrSessionStopped
	}
	return s.state, nil
}

// Stop moves the session to the terminal Stopped state.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Stopped
}
