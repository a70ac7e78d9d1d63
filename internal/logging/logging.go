// Package logging provides structured JSON logging for session diagnostics.
// The TUI owns stdout/stderr, so events go to a log file in the session
// output directory.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Level represents log severity.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Event is a single structured log record.
type Event struct {
	Timestamp string         `json:"ts"`
	Level     Level          `json:"level"`
	Component string         `json:"component"`
	Event     string         `json:"event"`
	Session   string         `json:"session,omitempty"`
	Duration  int64          `json:"duration_ms,omitempty"`
	Error     string         `json:"error,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// Logger writes structured events to a shared sink.
type Logger struct {
	component string
	session   string
	sink      *sink
}

type sink struct {
	mu sync.Mutex
	w  io.Writer
	c  io.Closer
}

// Open creates a logger writing to a log file at the given path, creating
// parent directories as needed.
func Open(path, component string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return &Logger{component: component, sink: &sink{w: f, c: f}}, nil
}

// NewWriter creates a logger over an arbitrary writer. Used in tests.
func NewWriter(w io.Writer, component string) *Logger {
	return &Logger{component: component, sink: &sink{w: w}}
}

// Discard returns a logger that drops every event.
func Discard() *Logger {
	return &Logger{component: "discard", sink: &sink{w: io.Discard}}
}

// Close closes the underlying file, if any.
func (l *Logger) Close() error {
	if l.sink.c != nil {
		return l.sink.c.Close()
	}
	return nil
}

// WithComponent returns a logger for another component sharing the same sink.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{component: component, session: l.session, sink: l.sink}
}

// WithSession attaches a session id to every event.
func (l *Logger) WithSession(session string) *Logger {
	return &Logger{component: l.component, session: session, sink: l.sink}
}

func (l *Logger) log(level Level, event string, extra map[string]any, err error) {
	e := Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level,
		Component: l.component,
		Event:     event,
		Session:   l.session,
		Extra:     extra,
	}
	if err != nil {
		e.Error = err.Error()
	}

	data, merr := json.Marshal(e)
	if merr != nil {
		return
	}
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	fmt.Fprintln(l.sink.w, string(data))
}

// Debug logs a debug event.
func (l *Logger) Debug(event string, extra map[string]any) {
	l.log(LevelDebug, event, extra, nil)
}

// Info logs an info event.
func (l *Logger) Info(event string, extra map[string]any) {
	l.log(LevelInfo, event, extra, nil)
}

// Warn logs a warning event.
func (l *Logger) Warn(event string, extra map[string]any, err error) {
	l.log(LevelWarn, event, extra, err)
}

// Error logs an error event.
func (l *Logger) Error(event string, extra map[string]any, err error) {
	l.log(LevelError, event, extra, err)
}

// TimedEvent logs an info event with its duration.
func (l *Logger) TimedEvent(event string, start time.Time, extra map[string]any) {
	e := Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     LevelInfo,
		Component: l.component,
		Event:     event,
		Session:   l.session,
		Duration:  time.Since(start).Milliseconds(),
		Extra:     extra,
	}
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	fmt.Fprintln(l.sink.w, string(data))
}
