// Package export writes the finished minutes and raw transcript to disk and
// optionally mirrors the minutes into an Obsidian vault.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/h-wata/meeting-transcriber/internal/engine"
	"github.com/h-wata/meeting-transcriber/internal/ledger"
)

// Writer materializes one session's output directory.
type Writer struct {
	OutputDir      string
	FilenameFormat string // time layout for the session dir name
	ObsidianVault  string // optional vault root
	ObsidianFolder string // subfolder inside the vault
}

// DefaultFilenameFormat names session directories by start time.
const DefaultFilenameFormat = "meeting_20060102_150405"

// SessionDir returns the directory this session writes into.
func (w *Writer) SessionDir(start time.Time) string {
	format := w.FilenameFormat
	if format == "" {
		format = DefaultFilenameFormat
	}
	return filepath.Join(w.OutputDir, start.Format(format))
}

// Save writes minutes.md, minutes_final.md, and transcript_raw.txt into the
// session directory and returns the minutes path.
func (w *Writer) Save(start time.Time, doc engine.Document, segments []ledger.Segment) (string, error) {
	dir := w.SessionDir(start)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create session dir: %w", err)
	}

	minutes := doc.Markdown()
	minutesPath := filepath.Join(dir, "minutes.md")
	if err := os.WriteFile(minutesPath, []byte(minutes), 0o644); err != nil {
		return "", fmt.Errorf("write minutes: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "minutes_final.md"), []byte(minutes), 0o644); err != nil {
		return "", fmt.Errorf("write final minutes: %w", err)
	}

	if err := w.SaveTranscript(start, segments); err != nil {
		return "", err
	}

	if w.ObsidianVault != "" {
		if err := w.mirrorToVault(start, minutes); err != nil {
			return "", err
		}
	}

	return minutesPath, nil
}

// SaveTranscript writes the raw transcript alone. Used by the mid-session
// save key as well as the final export.
func (w *Writer) SaveTranscript(start time.Time, segments []ledger.Segment) error {
	dir := w.SessionDir(start)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	lines := make([]string, len(segments))
	for i, s := range segments {
		lines[i] = s.String()
	}
	path := filepath.Join(dir, "transcript_raw.txt")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}

// SaveVersion refreshes minutes.md with an accepted document version and,
// when History is set, snapshots it as history/minutes_vNNN.md.
func (w *Writer) SaveVersion(start time.Time, doc engine.Document, history bool) error {
	dir := w.SessionDir(start)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	minutes := doc.Markdown()
	if err := os.WriteFile(filepath.Join(dir, "minutes.md"), []byte(minutes), 0o644); err != nil {
		return fmt.Errorf("write minutes: %w", err)
	}

	if history {
		histDir := filepath.Join(dir, "history")
		if err := os.MkdirAll(histDir, 0o755); err != nil {
			return fmt.Errorf("create history dir: %w", err)
		}
		name := fmt.Sprintf("minutes_v%03d.md", doc.Version)
		if err := os.WriteFile(filepath.Join(histDir, name), []byte(minutes), 0o644); err != nil {
			return fmt.Errorf("write version snapshot: %w", err)
		}
	}
	return nil
}

// Archiver adapts the writer to the engine's archive hook: every accepted
// version refreshes minutes.md and lands in history/.
type Archiver struct {
	Writer  *Writer
	Start   time.Time
	History bool
}

// SaveVersion persists one accepted document version.
func (a Archiver) SaveVersion(doc engine.Document) error {
	return a.Writer.SaveVersion(a.Start, doc, a.History)
}

func (w *Writer) mirrorToVault(start time.Time, minutes string) error {
	format := w.FilenameFormat
	if format == "" {
		format = DefaultFilenameFormat
	}
	dir := filepath.Join(w.ObsidianVault, w.ObsidianFolder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create vault folder: %w", err)
	}
	path := filepath.Join(dir, start.Format(format)+".md")
	if err := os.WriteFile(path, []byte(minutes), 0o644); err != nil {
		return fmt.Errorf("mirror to vault: %w", err)
	}
	return nil
}
