// Package store persists sessions, transcript segments, and minutes versions
// to SQLite so past meetings survive the process.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/h-wata/meeting-transcriber/internal/engine"
	"github.com/h-wata/meeting-transcriber/internal/ledger"
)

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// DefaultDBPath returns the default database location.
func DefaultDBPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "meeting-transcriber", "sessions.sqlite")
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id          TEXT PRIMARY KEY,
	template    TEXT NOT NULL,
	started_at  REAL NOT NULL,
	ended_at    REAL,
	status      TEXT NOT NULL DEFAULT 'active'
);
CREATE TABLE IF NOT EXISTS segments (
	session_id  TEXT NOT NULL,
	sequence_id INTEGER NOT NULL,
	started_at  REAL NOT NULL,
	ended_at    REAL NOT NULL,
	text        TEXT NOT NULL,
	PRIMARY KEY (session_id, sequence_id)
);
CREATE TABLE IF NOT EXISTS minutes_versions (
	session_id  TEXT NOT NULL,
	version     INTEGER NOT NULL,
	content     TEXT NOT NULL,
	created_at  REAL NOT NULL,
	PRIMARY KEY (session_id, version)
);
`

// Open opens (creating if needed) the database with WAL enabled.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateSession records a new active session.
func (s *Store) CreateSession(id, templateName string, startedAt time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO sessions (id, template, started_at, status)
		VALUES (?, ?, ?, 'active')
	`, id, templateName, unixFloat(startedAt))
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// EndSession marks a session completed.
func (s *Store) EndSession(id string, endedAt time.Time) error {
	_, err := s.db.Exec(`
		UPDATE sessions SET ended_at = ?, status = 'completed' WHERE id = ?
	`, unixFloat(endedAt), id)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

// AppendSegment persists one transcript segment.
func (s *Store) AppendSegment(sessionID string, seg ledger.Segment) error {
	_, err := s.db.Exec(`
		INSERT INTO segments (session_id, sequence_id, started_at, ended_at, text)
		VALUES (?, ?, ?, ?, ?)
	`, sessionID, seg.SequenceID, unixFloat(seg.StartTime), unixFloat(seg.EndTime), seg.Text)
	if err != nil {
		return fmt.Errorf("insert segment: %w", err)
	}
	return nil
}

// SegmentsForSession returns a session's segments in sequence order.
func (s *Store) SegmentsForSession(sessionID string) ([]ledger.Segment, error) {
	rows, err := s.db.Query(`
		SELECT sequence_id, started_at, ended_at, text
		FROM segments
		WHERE session_id = ?
		ORDER BY sequence_id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query segments: %w", err)
	}
	defer rows.Close()

	var segments []ledger.Segment
	for rows.Next() {
		var seg ledger.Segment
		var started, ended float64
		if err := rows.Scan(&seg.SequenceID, &started, &ended, &seg.Text); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		seg.StartTime = timeFromUnix(started)
		seg.EndTime = timeFromUnix(ended)
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}

// SaveMinutesVersion persists one accepted document version.
func (s *Store) SaveMinutesVersion(sessionID string, version int, content string) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO minutes_versions (session_id, version, content, created_at)
		VALUES (?, ?, ?, ?)
	`, sessionID, version, content, unixFloat(time.Now()))
	if err != nil {
		return fmt.Errorf("insert minutes version: %w", err)
	}
	return nil
}

// LatestMinutes returns the newest stored minutes for a session, or "" if
// none exist.
func (s *Store) LatestMinutes(sessionID string) (string, int, error) {
	row := s.db.QueryRow(`
		SELECT content, version FROM minutes_versions
		WHERE session_id = ?
		ORDER BY version DESC
		LIMIT 1
	`, sessionID)

	var content string
	var version int
	if err := row.Scan(&content, &version); err != nil {
		if err == sql.ErrNoRows {
			return "", 0, nil
		}
		return "", 0, fmt.Errorf("scan minutes: %w", err)
	}
	return content, version, nil
}

// Archiver adapts the store to the engine's version-persistence hook for one
// session.
type Archiver struct {
	Store     *Store
	SessionID string
}

// SaveVersion stores the document's markdown under its version number.
func (a Archiver) SaveVersion(doc engine.Document) error {
	return a.Store.SaveMinutesVersion(a.SessionID, doc.Version, doc.Markdown())
}

func unixFloat(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}
