// Package ledger holds the append-only transcript of recognized speech.
package ledger

import (
	"fmt"
	"sync"
	"time"
)

// Segment is a single timestamped unit of recognized speech text.
// Immutable once appended.
type Segment struct {
	SequenceID int64
	StartTime  time.Time
	EndTime    time.Time
	Text       string
}

// String formats a segment the way it appears in prompts and transcript files.
func (s Segment) String() string {
	return fmt.Sprintf("[%s] %s", s.StartTime.Format("15:04:05"), s.Text)
}

// ErrOrderingViolation is returned by Append when a segment arrives out of
// order. It indicates upstream corruption; the session should stop accepting
// segments from that source.
type ErrOrderingViolation struct {
	Got  int64
	Want int64
}

func (e *ErrOrderingViolation) Error() string {
	return fmt.Sprintf("ledger: segment sequence %d out of order (want %d)", e.Got, e.Want)
}

// Ledger is the time-ordered store of segments plus the high-water mark of
// what has been incorporated into the minutes document.
//
// Append runs concurrently with readers; SyncedThrough is written only by the
// synthesis engine immediately after a successful merge.
type Ledger struct {
	mu            sync.RWMutex
	segments      []Segment
	syncedThrough int64
}

// New returns an empty ledger. Sequence ids start at 1.
func New() *Ledger {
	return &Ledger{}
}

// Append adds a segment. The sequence id must be exactly one greater than the
// current maximum; anything else is an ordering violation.
func (l *Ledger) Append(seg Segment) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	want := int64(1)
	if n := len(l.segments); n > 0 {
		want = l.segments[n-1].SequenceID + 1
	}
	if seg.SequenceID != want {
		return &ErrOrderingViolation{Got: seg.SequenceID, Want: want}
	}

	l.segments = append(l.segments, seg)
	return nil
}

// DeltaSince returns a copy of the segments with sequence id greater than
// mark, in order. Empty if there are none.
func (l *Ledger) DeltaSince(mark int64) []Segment {
	l.mu.RLock()
	defer l.mu.RUnlock()

	// Sequence ids are dense starting at 1, so the slice offset is the mark.
	if mark < 0 {
		mark = 0
	}
	if int(mark) >= len(l.segments) {
		return nil
	}
	delta := make([]Segment, len(l.segments)-int(mark))
	copy(delta, l.segments[mark:])
	return delta
}

// All returns a copy of every segment.
func (l *Ledger) All() []Segment {
	l.mu.RLock()
	defer l.mu.RUnlock()

	all := make([]Segment, len(l.segments))
	copy(all, l.segments)
	return all
}

// MarkSynced advances the high-water mark. The mark never regresses and never
// exceeds the latest appended id.
func (l *Ledger) MarkSynced(id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if id < l.syncedThrough {
		return fmt.Errorf("ledger: mark %d regresses synced-through %d", id, l.syncedThrough)
	}
	var latest int64
	if n := len(l.segments); n > 0 {
		latest = l.segments[n-1].SequenceID
	}
	if id > latest {
		return fmt.Errorf("ledger: mark %d exceeds latest segment %d", id, latest)
	}

	l.syncedThrough = id
	return nil
}

// SyncedThrough returns the current high-water mark.
func (l *Ledger) SyncedThrough() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.syncedThrough
}

// LatestID returns the sequence id of the last appended segment, or 0.
func (l *Ledger) LatestID() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n := len(l.segments); n > 0 {
		return l.segments[n-1].SequenceID
	}
	return 0
}

// Len returns the number of segments.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.segments)
}
