package recognizer

import (
	"context"
	"testing"
	"time"

	"github.com/h-wata/meeting-transcriber/internal/ledger"
	"github.com/h-wata/meeting-transcriber/internal/logging"
)

func TestProcessSourceParsesEvents(t *testing.T) {
	// Upstream sequence numbers are sparse on purpose: delivery numbering
	// is dense and assigned here, not by the subprocess.
	script := `printf '%s\n' ` +
		`'{"sequence_id":5,"start_sec":1748774400,"end_sec":1748774403,"text":"hello"}' ` +
		`'not json' ` +
		`'{"sequence_id":7,"text":""}' ` +
		`'{"sequence_id":9,"start_sec":1748774404,"end_sec":1748774406,"text":"world"}'`
	src := NewProcessSource("sh", []string{"-c", script}, logging.Discard())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ch, err := src.Segments(ctx)
	if err != nil {
		t.Fatalf("Segments: %v", err)
	}

	var got []ledger.Segment
	for seg := range ch {
		got = append(got, seg)
	}
	if len(got) != 2 {
		t.Fatalf("got %d segments, want 2: %v", len(got), got)
	}
	if got[0].SequenceID != 1 || got[0].Text != "hello" {
		t.Errorf("first segment = %+v", got[0])
	}
	if got[0].StartTime.Unix() != 1748774400 {
		t.Errorf("start time = %v", got[0].StartTime)
	}
	if got[1].SequenceID != 2 || got[1].Text != "world" {
		t.Errorf("second segment = %+v", got[1])
	}
}

func TestProcessSourceMissingCommand(t *testing.T) {
	src := NewProcessSource("no-such-recognizer-binary", nil, logging.Discard())
	if _, err := src.Segments(context.Background()); err == nil {
		t.Fatal("expected start error for missing command")
	}
}

func TestFakeSourcePauseKeepsNumberingDense(t *testing.T) {
	src := NewFakeSource()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := src.Segments(ctx)
	if err != nil {
		t.Fatalf("Segments: %v", err)
	}

	src.Emit(ledger.Segment{Text: "before"})
	src.Pause()
	src.Emit(ledger.Segment{Text: "during pause"})
	src.Resume()
	src.Emit(ledger.Segment{Text: "after"})
	src.Close()

	var got []ledger.Segment
	for seg := range ch {
		got = append(got, seg)
	}
	if len(got) != 2 || got[0].Text != "before" || got[1].Text != "after" {
		t.Fatalf("delivered = %v, want [before after]", got)
	}
	// The dropped segment consumed no number: appends stay gap-free.
	if got[0].SequenceID != 1 || got[1].SequenceID != 2 {
		t.Errorf("sequence ids = %d, %d, want 1, 2", got[0].SequenceID, got[1].SequenceID)
	}
	led := ledger.New()
	for _, seg := range got {
		if err := led.Append(seg); err != nil {
			t.Fatalf("append after pause/resume: %v", err)
		}
	}
}

func TestScriptedSourceDelivers(t *testing.T) {
	src := NewScriptedSource([]string{"one", "two"}, time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ch, err := src.Segments(ctx)
	if err != nil {
		t.Fatalf("Segments: %v", err)
	}

	first := <-ch
	second := <-ch
	if first.Text != "one" || second.Text != "two" {
		t.Errorf("delivered %q, %q", first.Text, second.Text)
	}
	if first.SequenceID != 1 || second.SequenceID != 2 {
		t.Errorf("sequence ids = %d, %d", first.SequenceID, second.SequenceID)
	}
}
