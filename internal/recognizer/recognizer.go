// Package recognizer adapts the external speech-recognition collaborator.
// The recognizer runs as a subprocess emitting NDJSON segment events on
// stdout; this package turns them into ordered ledger segments.
package recognizer

import (
	"bufio"
	"context"
	"encoding/json"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"

	"github.com/h-wata/meeting-transcriber/internal/ledger"
	"github.com/h-wata/meeting-transcriber/internal/logging"
)

// Source delivers ordered transcript segments. Pause instructs the source to
// stop delivering; Resume reverses it.
type Source interface {
	Segments(ctx context.Context) (<-chan ledger.Segment, error)
	Pause()
	Resume()
}

// event is one NDJSON line from the recognizer process. The upstream
// sequence_id is arrival order only; ledger sequence numbers are assigned
// here at delivery time.
type event struct {
	SequenceID int64   `json:"sequence_id"`
	StartSec   float64 `json:"start_sec"`
	EndSec     float64 `json:"end_sec"`
	Text       string  `json:"text"`
}

// ProcessSource spawns a recognizer command and reads segment events from
// its stdout. Stderr lines go to the log.
//
// Delivered segments are numbered densely by this source, not by the
// subprocess: a segment recognized while paused is dropped and consumes no
// number, so the stream stays gap-free across pause/resume.
type ProcessSource struct {
	command string
	args    []string
	log     *logging.Logger
	paused  atomic.Bool
	seq     int64
}

// NewProcessSource creates a source for the given recognizer command line.
func NewProcessSource(command string, args []string, log *logging.Logger) *ProcessSource {
	if log == nil {
		log = logging.Discard()
	}
	return &ProcessSource{command: command, args: args, log: log}
}

// Segments starts the subprocess and streams its segments. The channel
// closes when the process exits or the context is done.
func (p *ProcessSource) Segments(ctx context.Context) (<-chan ledger.Segment, error) {
	cmd := exec.CommandContext(ctx, p.command, p.args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	out := make(chan ledger.Segment, 32)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			var ev event
			if err := json.Unmarshal([]byte(line), &ev); err != nil {
				p.log.Warn("recognizer_bad_line", map[string]any{"line": line}, err)
				continue
			}
			if ev.Text == "" || p.paused.Load() {
				continue
			}
			p.seq++
			seg := toSegment(ev)
			seg.SequenceID = p.seq
			select {
			case out <- seg:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			p.log.Error("recognizer_read_failed", nil, err)
		}
	}()
	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				p.log.Debug("recognizer_stderr", map[string]any{"line": line})
			}
		}
	}()
	go func() {
		_ = cmd.Wait()
	}()

	return out, nil
}

// Pause stops delivery. Segments recognized while paused are dropped, not
// buffered, and consume no sequence number.
func (p *ProcessSource) Pause() { p.paused.Store(true) }

// Resume restarts delivery.
func (p *ProcessSource) Resume() { p.paused.Store(false) }

func toSegment(ev event) ledger.Segment {
	seg := ledger.Segment{
		Text: ev.Text,
	}
	if ev.StartSec > 0 {
		seg.StartTime = timeFromSec(ev.StartSec)
	} else {
		seg.StartTime = time.Now()
	}
	if ev.EndSec > 0 {
		seg.EndTime = timeFromSec(ev.EndSec)
	} else {
		seg.EndTime = seg.StartTime
	}
	return seg
}

func timeFromSec(sec float64) time.Time {
	s := int64(sec)
	ns := int64((sec - float64(s)) * 1e9)
	return time.Unix(s, ns)
}
