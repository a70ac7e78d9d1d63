package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/h-wata/meeting-transcriber/internal/engine"
	"github.com/h-wata/meeting-transcriber/internal/ledger"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionRoundTrip(t *testing.T) {
	s := openTestStore(t)
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	if err := s.CreateSession("sess-1", "default", start); err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := s.EndSession("sess-1", start.Add(time.Hour)); err != nil {
		t.Fatalf("end session: %v", err)
	}
}

func TestSegmentsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	if err := s.CreateSession("sess-1", "default", start); err != nil {
		t.Fatal(err)
	}

	for i := int64(1); i <= 3; i++ {
		seg := ledger.Segment{
			SequenceID: i,
			StartTime:  start.Add(time.Duration(i) * 5 * time.Second),
			EndTime:    start.Add(time.Duration(i+1) * 5 * time.Second),
			Text:       "hello",
		}
		if err := s.AppendSegment("sess-1", seg); err != nil {
			t.Fatalf("append segment %d: %v", i, err)
		}
	}

	segments, err := s.SegmentsForSession("sess-1")
	if err != nil {
		t.Fatalf("query segments: %v", err)
	}
	if len(segments) != 3 {
		t.Fatalf("segments = %d, want 3", len(segments))
	}
	if segments[0].SequenceID != 1 || segments[2].SequenceID != 3 {
		t.Errorf("wrong order: %d..%d", segments[0].SequenceID, segments[2].SequenceID)
	}
	if !segments[0].StartTime.Equal(start.Add(5 * time.Second)) {
		t.Errorf("start time = %v", segments[0].StartTime)
	}
}

func TestMinutesVersions(t *testing.T) {
	s := openTestStore(t)
	if err := s.CreateSession("sess-1", "default", time.Now()); err != nil {
		t.Fatal(err)
	}

	if err := s.SaveMinutesVersion("sess-1", 1, "v1"); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveMinutesVersion("sess-1", 2, "v2"); err != nil {
		t.Fatal(err)
	}

	content, version, err := s.LatestMinutes("sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if version != 2 || content != "v2" {
		t.Errorf("latest = v%d %q, want v2 \"v2\"", version, content)
	}
}

func TestLatestMinutesEmpty(t *testing.T) {
	s := openTestStore(t)
	content, version, err := s.LatestMinutes("missing")
	if err != nil {
		t.Fatal(err)
	}
	if content != "" || version != 0 {
		t.Errorf("expected empty, got v%d %q", version, content)
	}
}

func TestArchiver(t *testing.T) {
	s := openTestStore(t)
	if err := s.CreateSession("sess-1", "default", time.Now()); err != nil {
		t.Fatal(err)
	}

	a := Archiver{Store: s, SessionID: "sess-1"}
	doc := engine.Document{
		Title:    "# Minutes",
		Sections: []engine.Section{{Name: "Overview", Content: "- x"}},
		Version:  1,
	}
	if err := a.SaveVersion(doc); err != nil {
		t.Fatal(err)
	}

	content, version, err := s.LatestMinutes("sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if version != 1 {
		t.Errorf("version = %d", version)
	}
	if content != doc.Markdown() {
		t.Errorf("content = %q", content)
	}
}
