package recognizer

import (
	"context"
	"sync"
	"time"

	"github.com/h-wata/meeting-transcriber/internal/ledger"
)

// FakeSource is an in-process source fed by Emit. It backs tests and the
// --fake-recognizer demo mode.
//
// Like ProcessSource, it numbers segments densely at delivery: Emit assigns
// the next sequence number, and emits while paused are dropped without
// consuming one.
type FakeSource struct {
	ch chan ledger.Segment

	mu     sync.Mutex
	paused bool
	seq    int64
	closed bool
}

// NewFakeSource creates an empty fake source.
func NewFakeSource() *FakeSource {
	return &FakeSource{ch: make(chan ledger.Segment, 64)}
}

// Emit queues a segment for delivery, assigning its sequence number. Emits
// while paused are dropped.
func (f *FakeSource) Emit(seg ledger.Segment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.paused || f.closed {
		return
	}
	f.seq++
	seg.SequenceID = f.seq
	f.ch <- seg
}

// Close ends the stream.
func (f *FakeSource) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.ch)
	}
}

// Segments returns the delivery channel.
func (f *FakeSource) Segments(ctx context.Context) (<-chan ledger.Segment, error) {
	out := make(chan ledger.Segment)
	go func() {
		defer close(out)
		for {
			select {
			case seg, ok := <-f.ch:
				if !ok {
					return
				}
				select {
				case out <- seg:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Pause stops accepting emits.
func (f *FakeSource) Pause() {
	f.mu.Lock()
	f.paused = true
	f.mu.Unlock()
}

// Resume restarts accepting emits.
func (f *FakeSource) Resume() {
	f.mu.Lock()
	f.paused = false
	f.mu.Unlock()
}

// NewScriptedSource returns a fake source that emits the given lines at the
// given interval, one segment per line. Used by the demo mode.
func NewScriptedSource(lines []string, interval time.Duration) *FakeSource {
	src := NewFakeSource()
	go func() {
		for _, line := range lines {
			time.Sleep(interval)
			now := time.Now()
			src.Emit(ledger.Segment{
				StartTime: now.Add(-interval),
				EndTime:   now,
				Text:      line,
			})
		}
	}()
	return src
}
